package container

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/perr"
	"github.com/chazu/selvage/pkg/piece"
)

// Data is the computed state of one pattern.
type Data struct {
	objects     map[ident.ID]Object
	vars        map[string]Variable
	pieces      map[ident.ID]piece.Record
	paths       map[ident.ID]piece.Path
	uniqueNames map[string]struct{}
}

// New returns an empty container.
func New() *Data {
	d := &Data{}
	d.Clear()
	return d
}

// Clear drops everything.
func (d *Data) Clear() {
	d.objects = make(map[ident.ID]Object)
	d.vars = make(map[string]Variable)
	d.pieces = make(map[ident.ID]piece.Record)
	d.paths = make(map[ident.ID]piece.Path)
	d.uniqueNames = make(map[string]struct{})
}

// AddObject stores obj under id, replacing any previous value.
func (d *Data) AddObject(id ident.ID, obj Object) {
	d.objects[id] = obj
	d.AddUniqueName(obj.ObjectName())
}

// Object returns the object with id.
func (d *Data) Object(id ident.ID) (Object, error) {
	obj, ok := d.objects[id]
	if !ok {
		return nil, perr.BadID(id)
	}
	return obj, nil
}

// Point returns the point with id.
func (d *Data) Point(id ident.ID) (*Point, error) {
	obj, err := d.Object(id)
	if err != nil {
		return nil, err
	}
	p, ok := obj.(*Point)
	if !ok {
		return nil, perr.New(perr.KindBadID, "object %s is a %T, not a point", id, obj)
	}
	return p, nil
}

// Curve returns the arc or spline with id.
func (d *Data) Curve(id ident.ID) (*CurveObject, error) {
	obj, err := d.Object(id)
	if err != nil {
		return nil, err
	}
	c, ok := obj.(*CurveObject)
	if !ok {
		return nil, perr.New(perr.KindBadID, "object %s is a %T, not a curve", id, obj)
	}
	return c, nil
}

// RemoveObject drops the object with id.
func (d *Data) RemoveObject(id ident.ID) {
	delete(d.objects, id)
}

// ObjectCount returns the number of stored objects.
func (d *Data) ObjectCount() int { return len(d.objects) }

// AddVariable stores v, replacing a variable of the same name.
func (d *Data) AddVariable(v Variable) {
	d.vars[v.Name] = v
}

// Variable returns the variable called name.
func (d *Data) Variable(name string) (Variable, bool) {
	v, ok := d.vars[name]
	return v, ok
}

// Variables returns the variables of the given kinds sorted by name, or all
// of them when no kind is given. Increments sort by declaration order.
func (d *Data) Variables(kinds ...VarKind) []Variable {
	var out []Variable
	for _, v := range d.vars {
		if len(kinds) == 0 || slices.Contains(kinds, v.Kind) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Kind == VarIncrement || out[i].Kind == VarPreview {
			return out[i].Index < out[j].Index
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ClearVariables drops the variables of the given kinds.
func (d *Data) ClearVariables(kinds ...VarKind) {
	maps.DeleteFunc(d.vars, func(_ string, v Variable) bool {
		return slices.Contains(kinds, v.Kind)
	})
}

// Values returns a snapshot of every variable's value, keyed by name, in
// the form the formula calculator takes.
func (d *Data) Values() map[string]float64 {
	out := make(map[string]float64, len(d.vars))
	for name, v := range d.vars {
		out[name] = v.Value
	}
	return out
}

// VarSources returns a snapshot of the objects each derived variable comes
// from. Declared variables have no sources and are omitted.
func (d *Data) VarSources() map[string][]ident.ID {
	out := make(map[string][]ident.ID)
	for name, v := range d.vars {
		if len(v.Sources) > 0 {
			out[name] = slices.Clone(v.Sources)
		}
	}
	return out
}

// AddPiece stores rec.
func (d *Data) AddPiece(rec piece.Record) {
	d.pieces[rec.ID] = rec
}

// Piece returns the piece with id.
func (d *Data) Piece(id ident.ID) (piece.Record, error) {
	rec, ok := d.pieces[id]
	if !ok {
		return piece.Record{}, perr.BadID(id)
	}
	return rec, nil
}

// RemovePiece drops the piece with id.
func (d *Data) RemovePiece(id ident.ID) {
	delete(d.pieces, id)
}

// PieceIDs returns the stored piece ids in ascending order.
func (d *Data) PieceIDs() []ident.ID {
	ids := slices.Collect(maps.Keys(d.pieces))
	slices.Sort(ids)
	return ids
}

// AddPath stores a piece path.
func (d *Data) AddPath(id ident.ID, p piece.Path) {
	d.paths[id] = p
}

// Path returns the piece path with id.
func (d *Data) Path(id ident.ID) (piece.Path, error) {
	p, ok := d.paths[id]
	if !ok {
		return piece.Path{}, perr.BadID(id)
	}
	return p, nil
}

// AddUniqueName records that name is taken.
func (d *Data) AddUniqueName(name string) {
	if name != "" {
		d.uniqueNames[name] = struct{}{}
	}
}

// IsUnique reports whether name is still free.
func (d *Data) IsUnique(name string) bool {
	_, taken := d.uniqueNames[name]
	return !taken
}

// ClearUniqueNames forgets every taken name.
func (d *Data) ClearUniqueNames() {
	d.uniqueNames = make(map[string]struct{})
}

func (d *Data) String() string {
	return fmt.Sprintf("container{objects=%d vars=%d pieces=%d paths=%d}",
		len(d.objects), len(d.vars), len(d.pieces), len(d.paths))
}
