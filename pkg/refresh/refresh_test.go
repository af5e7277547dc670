package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/loop"
	"github.com/chazu/selvage/pkg/perr"
)

type harness struct {
	loop    *loop.Loop
	runner  *Runner
	units   []ident.ID
	results []Result
}

func newHarness(unit func(ident.ID) error) *harness {
	h := &harness{loop: loop.New()}
	h.runner = NewRunner(h.loop, func(_ context.Context, id ident.ID) error {
		h.units = append(h.units, id)
		if unit != nil {
			return unit(id)
		}
		return nil
	}, func(r Result) {
		h.results = append(h.results, r)
	})
	return h
}

func (h *harness) settle(t *testing.T, finals int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.loop.RunUntil(ctx, func() bool { return len(h.results) >= finals }))
}

func TestJobCompletes(t *testing.T) {
	h := newHarness(nil)
	job := h.runner.Start(context.Background(), []ident.ID{1, 2, 3})
	h.settle(t, 1)

	assert.Equal(t, []ident.ID{1, 2, 3}, h.units)
	assert.Equal(t, Completed, job.State())
	assert.Equal(t, []ident.ID{1, 2, 3}, job.Refreshed())
	require.Len(t, h.results, 1)
	assert.Equal(t, Completed, h.results[0].State)
	assert.Same(t, job, h.results[0].Job)
	assert.Equal(t, Idle, h.runner.State())
}

func TestSecondStartCancelsFirst(t *testing.T) {
	h := newHarness(nil)
	first := h.runner.Start(context.Background(), []ident.ID{1, 2, 3})
	// The owner has not drained yet, so the first job is parked on its
	// first unit.
	second := h.runner.Start(context.Background(), []ident.ID{7, 8})
	assert.NotEqual(t, first.ID(), second.ID())
	h.settle(t, 2)

	assert.Equal(t, Cancelled, first.State())
	assert.Empty(t, first.Refreshed())
	assert.Equal(t, Completed, second.State())
	assert.Equal(t, []ident.ID{7, 8}, h.units)

	completed := 0
	for _, r := range h.results {
		if r.State == Completed {
			completed++
			assert.Same(t, second, r.Job)
		}
	}
	assert.Equal(t, 1, completed)
}

func TestMissingPieceIsSkipped(t *testing.T) {
	h := newHarness(func(id ident.ID) error {
		switch id {
		case 2:
			return perr.BadID(id)
		case 3:
			return errors.New("kernel failure")
		}
		return nil
	})
	job := h.runner.Start(context.Background(), []ident.ID{1, 2, 3, 4})
	h.settle(t, 1)

	assert.Equal(t, []ident.ID{1, 2, 3, 4}, h.units)
	assert.Equal(t, []ident.ID{1, 4}, job.Refreshed())
	assert.Equal(t, Completed, h.results[0].State)
}

func TestCancelStillFinalizes(t *testing.T) {
	h := newHarness(nil)
	job := h.runner.Start(context.Background(), []ident.ID{1, 2})
	h.runner.Cancel()
	h.settle(t, 1)

	assert.Equal(t, Cancelled, job.State())
	assert.Empty(t, h.units)
	assert.Equal(t, Cancelled, h.results[0].State)
}

func TestEmptyJob(t *testing.T) {
	h := newHarness(nil)
	h.runner.Start(context.Background(), nil)
	h.settle(t, 1)
	assert.Equal(t, Completed, h.results[0].State)
	h.runner.Wait()
	assert.Equal(t, Idle, h.runner.State())
}
