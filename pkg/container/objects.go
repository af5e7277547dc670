// Package container holds the values computed from a pattern document:
// geometric objects, variables, pieces and piece paths. It is owned by the
// pattern's loop and is not safe for concurrent use.
package container

import (
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/kernel"
)

// Mode tells whether an object belongs to the drafting calculation or was
// copied into a piece.
type Mode int

const (
	Calculation Mode = iota
	Modeling
)

// Object is a computed geometric value. The set of implementations is
// closed: *Point and *CurveObject.
type Object interface {
	ObjectName() string
	ObjectMode() Mode
	object()
}

// Point is a computed point.
type Point struct {
	Name string
	Pos  kernel.Vec2
	Mode Mode
	// LabelX and LabelY offset the point's label.
	LabelX, LabelY float64
}

func (p *Point) ObjectName() string { return p.Name }
func (p *Point) ObjectMode() Mode   { return p.Mode }
func (*Point) object()              {}

// CurveKind distinguishes the curve families.
type CurveKind int

const (
	CurveArc CurveKind = iota
	CurveSpline
)

func (k CurveKind) String() string {
	if k == CurveArc {
		return "arc"
	}
	return "spline"
}

// CurveObject is a computed arc or spline.
type CurveObject struct {
	Name  string
	Kind  CurveKind
	Curve kernel.Curve
	Mode  Mode
	// Source is the calculation object a modeling copy was taken from.
	Source ident.ID
}

func (c *CurveObject) ObjectName() string { return c.Name }
func (c *CurveObject) ObjectMode() Mode   { return c.Mode }
func (*CurveObject) object()              {}
