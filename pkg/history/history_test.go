package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/selvage/pkg/ident"
)

func TestDropPreservesOrder(t *testing.T) {
	l := New()
	for _, id := range []ident.ID{1, 2, 3, 4} {
		l.Append(id, ident.ToolNodePoint, "Block 1")
	}

	removed := l.Drop(ident.NewSet(2))

	assert.Equal(t, 1, removed)
	assert.Equal(t, []ident.ID{1, 3, 4}, l.IDs())
	recs := l.Records()
	assert.Equal(t, 0, recs[0].Seq)
	assert.Equal(t, 2, recs[1].Seq)
	assert.Equal(t, 3, recs[2].Seq)
}

func TestLocalAndLast(t *testing.T) {
	l := New()
	l.Append(1, ident.ToolBasePoint, "A")
	l.Append(2, ident.ToolEndLine, "A")
	l.Append(3, ident.ToolBasePoint, "B")
	l.Append(4, ident.ToolLine, "A")

	local := l.Local("A")
	require.Len(t, local, 3)
	assert.Equal(t, ident.ID(4), local[2].ID)
	assert.Equal(t, ident.ID(3), l.LastInBlock("B"))
	assert.Equal(t, ident.NullID, l.LastInBlock("C"))

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, "A", last.Block)
}

func TestClearRestartsSequence(t *testing.T) {
	l := New()
	l.Append(1, ident.ToolBasePoint, "A")
	l.Clear()
	rec := l.Append(7, ident.ToolBasePoint, "A")
	assert.Equal(t, 0, rec.Seq)
	assert.Equal(t, 1, l.Len())
	_, ok := New().Last()
	assert.False(t, ok)
}
