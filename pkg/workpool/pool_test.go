package workpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureCompleted(t *testing.T) {
	p := New(2)
	f := Go(context.Background(), p, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	v, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, Completed, f.State())
	assert.False(t, f.Cancelled())
}

func TestFutureFailed(t *testing.T) {
	p := New(1)
	boom := errors.New("boom")
	f := Go(context.Background(), p, func(ctx context.Context) (int, error) {
		return 0, boom
	})

	_, err := f.Wait()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Failed, f.State())
}

func TestFutureCancelledBeforeStart(t *testing.T) {
	p := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	f := Go(ctx, p, func(ctx context.Context) (int, error) {
		ran.Store(true)
		return 1, nil
	})

	assert.True(t, f.Cancelled())
	assert.False(t, ran.Load(), "cancelled task must not run")
}

func TestFutureCancelledWhileRunning(t *testing.T) {
	p := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})

	f := Go(ctx, p, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	<-started
	cancel()
	assert.True(t, f.Cancelled())
}

func TestPoolLimitsConcurrency(t *testing.T) {
	p := New(2)
	var cur, peak atomic.Int32

	futures := make([]*Future[struct{}], 8)
	for i := range futures {
		futures[i] = Go(context.Background(), p, func(ctx context.Context) (struct{}, error) {
			n := cur.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			cur.Add(-1)
			return struct{}{}, nil
		})
	}
	for _, f := range futures {
		_, err := f.Wait()
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestMapReduceKeepsItemOrder(t *testing.T) {
	p := New(3)
	items := []string{"a", "bb", "ccc", "dddd"}

	got, err := MapReduce(context.Background(), p, items,
		func(ctx context.Context, s string) (int, error) { return len(s), nil },
		func(acc []int, n int) []int { return append(acc, n) },
		[]int(nil),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestMapReduceError(t *testing.T) {
	p := New(2)
	boom := errors.New("boom")

	total, err := MapReduce(context.Background(), p, []int{1, 2, 3},
		func(ctx context.Context, n int) (int, error) {
			if n == 2 {
				return 0, boom
			}
			return n, nil
		},
		func(acc, n int) int { return acc + n },
		0,
	)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, total)
}

func TestDefaultSize(t *testing.T) {
	assert.Greater(t, New(0).Size(), 0)
}
