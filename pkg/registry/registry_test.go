package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/perr"
)

type fakeTool struct {
	id   ident.ID
	kind ident.ToolKind
}

func (f *fakeTool) ID() ident.ID          { return f.id }
func (f *fakeTool) Kind() ident.ToolKind { return f.kind }

func TestAddReplacesAndQueuesOld(t *testing.T) {
	r := New()
	first := &fakeTool{id: 1, kind: ident.ToolBasePoint}
	second := &fakeTool{id: 1, kind: ident.ToolBasePoint}

	r.Add(first)
	r.Add(second)

	require.Equal(t, 1, r.Len())
	got, err := r.Get(1)
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.Equal(t, []Tool{first}, r.PendingRemoval())

	r.ClearRemovalQueue()
	assert.Empty(t, r.PendingRemoval())
}

func TestAddSameToolTwiceIsNotQueued(t *testing.T) {
	r := New()
	tool := &fakeTool{id: 3}
	r.Add(tool)
	r.Add(tool)
	assert.Empty(t, r.PendingRemoval())
}

func TestGetMissingIsBadID(t *testing.T) {
	r := New()
	_, err := r.Get(9)
	assert.True(t, perr.IsKind(err, perr.KindBadID))
}

func TestRemoveAndIDs(t *testing.T) {
	r := New()
	for _, id := range []ident.ID{5, 2, 9} {
		r.Add(&fakeTool{id: id})
	}
	assert.Equal(t, []ident.ID{2, 5, 9}, r.IDs())

	r.Remove(5)
	assert.False(t, r.Has(5))
	assert.Len(t, r.PendingRemoval(), 1)

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.PendingRemoval())
}
