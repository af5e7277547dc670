package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/kernel"
	"github.com/chazu/selvage/pkg/perr"
	"github.com/chazu/selvage/pkg/piece"
)

func TestObjectsByKind(t *testing.T) {
	d := New()
	d.AddObject(1, &Point{Name: "A", Pos: kernel.Vec2{X: 1, Y: 2}})
	d.AddObject(2, &CurveObject{Name: "Arc_A_1", Kind: CurveArc})

	p, err := d.Point(1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.Pos.Y)

	_, err = d.Point(2)
	assert.True(t, perr.IsKind(err, perr.KindBadID))

	c, err := d.Curve(2)
	require.NoError(t, err)
	assert.Equal(t, "arc", c.Kind.String())

	_, err = d.Object(99)
	assert.True(t, perr.IsKind(err, perr.KindBadID))

	assert.False(t, d.IsUnique("A"))
	assert.True(t, d.IsUnique("B"))
}

func TestClearVariablesByKind(t *testing.T) {
	d := New()
	d.AddVariable(Variable{Name: "#waist", Kind: VarIncrement, Value: 70})
	d.AddVariable(Variable{Name: "#p", Kind: VarPreview, Value: 1})
	d.AddVariable(Variable{Name: "Line_A_B", Kind: VarLineLength, Value: 10, Sources: []ident.ID{1, 2}})
	d.AddObject(1, &Point{Name: "A"})
	d.AddPiece(piece.Record{ID: 5})
	d.AddPath(6, piece.Path{Name: "p"})

	d.ClearVariables(VarLineLength)
	assert.Equal(t, map[string]float64{"#waist": 70, "#p": 1}, d.Values())
	assert.Equal(t, 1, d.ObjectCount())

	d.Clear()
	assert.Equal(t, 0, d.ObjectCount())
	assert.Empty(t, d.PieceIDs())
	_, err := d.Path(6)
	assert.Error(t, err)
	assert.True(t, d.IsUnique("A"))
	assert.Empty(t, d.Values())
}

func TestVariablesOrderAndSources(t *testing.T) {
	d := New()
	d.AddVariable(Variable{Name: "#b", Kind: VarIncrement, Index: 0})
	d.AddVariable(Variable{Name: "#a", Kind: VarIncrement, Index: 1})
	d.AddVariable(Variable{Name: "Spl_A_B", Kind: VarCurveLength, Sources: []ident.ID{3}})

	vs := d.Variables(VarIncrement)
	require.Len(t, vs, 2)
	assert.Equal(t, "#b", vs[0].Name)
	assert.Equal(t, "#a", vs[1].Name)

	assert.Equal(t, map[string][]ident.ID{"Spl_A_B": {3}}, d.VarSources())

	d.ClearVariables(VarIncrement)
	assert.Len(t, d.Variables(), 1)
}

func TestPieceIDsSorted(t *testing.T) {
	d := New()
	d.AddPiece(piece.Record{ID: 9})
	d.AddPiece(piece.Record{ID: 3})
	assert.Equal(t, []ident.ID{3, 9}, d.PieceIDs())

	d.RemovePiece(3)
	_, err := d.Piece(3)
	assert.Error(t, err)
}
