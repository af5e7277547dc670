// Package kernel defines the abstract 2D geometry kernel interface.
// Implementations construct points, curves and piece outlines behind this
// interface so that the parser never depends on a specific math library.
//
// Angles are in degrees, counterclockwise, with the y axis pointing down as
// on a drawing sheet.
package kernel

import "math"

// Vec2 is a point or vector in the drawing plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns a + b.
func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }

// Sub returns a - b.
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }

// Scale returns a * k.
func (a Vec2) Scale(k float64) Vec2 { return Vec2{a.X * k, a.Y * k} }

// Length returns the euclidean norm of a.
func (a Vec2) Length() float64 { return math.Hypot(a.X, a.Y) }

// Dist returns the distance between a and b.
func (a Vec2) Dist(b Vec2) float64 { return a.Sub(b).Length() }

// Angle returns the direction from a to b in degrees, [0, 360).
func (a Vec2) Angle(b Vec2) float64 {
	d := b.Sub(a)
	deg := math.Atan2(-d.Y, d.X) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min Vec2 `json:"min"`
	Max Vec2 `json:"max"`
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the vertical extent of the box.
func (b Box) Height() float64 { return b.Max.Y - b.Min.Y }

// Curve is a constructed curve (arc, spline) with derived quantities.
type Curve interface {
	// Points returns a polyline approximation, start to end.
	Points() []Vec2
	Length() float64
	Start() Vec2
	End() Vec2
}

// Outline is the closed contour of a piece.
type Outline interface {
	BoundingBox() Box
	// Area returns the enclosed area, always non-negative.
	Area() float64
	Contains(p Vec2) bool
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Points
	EndLine(base Vec2, length, angle float64) Vec2
	AlongLine(p1, p2 Vec2, length float64) Vec2

	// Curves
	Arc(center Vec2, radius, angle1, angle2 float64) (Curve, error)
	CubicBezier(p1, p2, p3, p4 Vec2) Curve

	// Outlines
	Outline(points []Vec2) (Outline, error)
	// Union returns the box enclosing every outline; false when empty.
	Union(outlines []Outline) (Box, bool)
}
