// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/selvage/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// Curve sampling resolution.
const (
	arcSegmentsPerTurn = 72
	bezierSegments     = 32
)

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

func toV2(p kernel.Vec2) v2.Vec   { return v2.Vec{X: p.X, Y: p.Y} }
func fromV2(p v2.Vec) kernel.Vec2 { return kernel.Vec2{X: p.X, Y: p.Y} }

func fromBox(b sdf.Box2) kernel.Box {
	return kernel.Box{Min: fromV2(b.Min), Max: fromV2(b.Max)}
}

// direction returns the unit vector for an angle in degrees on a y-down sheet.
func direction(angle float64) v2.Vec {
	rad := angle * math.Pi / 180.0
	return v2.Vec{X: math.Cos(rad), Y: -math.Sin(rad)}
}

// EndLine returns the point at the given length and angle from base.
func (k *SdfxKernel) EndLine(base kernel.Vec2, length, angle float64) kernel.Vec2 {
	return fromV2(toV2(base).Add(direction(angle).MulScalar(length)))
}

// AlongLine returns the point at the given length from p1 towards p2.
func (k *SdfxKernel) AlongLine(p1, p2 kernel.Vec2, length float64) kernel.Vec2 {
	a, b := toV2(p1), toV2(p2)
	d := b.Sub(a)
	if d.Length() == 0 {
		return p1
	}
	return fromV2(a.Add(d.Normalize().MulScalar(length)))
}

// Arc builds a counterclockwise arc from angle1 to angle2.
func (k *SdfxKernel) Arc(center kernel.Vec2, radius, angle1, angle2 float64) (kernel.Curve, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("arc radius must be positive, got %g", radius)
	}
	sweep := math.Mod(angle2-angle1, 360)
	if sweep <= 0 {
		sweep += 360
	}
	n := int(math.Ceil(sweep / 360 * arcSegmentsPerTurn))
	if n < 1 {
		n = 1
	}

	c := toV2(center)
	pts := make([]kernel.Vec2, 0, n+1)
	for i := 0; i <= n; i++ {
		a := angle1 + sweep*float64(i)/float64(n)
		pts = append(pts, fromV2(c.Add(direction(a).MulScalar(radius))))
	}
	return &curve{
		points: pts,
		length: radius * sweep * math.Pi / 180.0,
	}, nil
}

// CubicBezier builds a cubic Bezier curve through its four control points.
func (k *SdfxKernel) CubicBezier(p1, p2, p3, p4 kernel.Vec2) kernel.Curve {
	c0, c1, c2, c3 := toV2(p1), toV2(p2), toV2(p3), toV2(p4)

	pts := make([]kernel.Vec2, 0, bezierSegments+1)
	var length float64
	prev := c0
	for i := 0; i <= bezierSegments; i++ {
		t := float64(i) / bezierSegments
		mt := 1 - t
		p := c0.MulScalar(mt * mt * mt).
			Add(c1.MulScalar(3 * mt * mt * t)).
			Add(c2.MulScalar(3 * mt * t * t)).
			Add(c3.MulScalar(t * t * t))
		if i > 0 {
			length += p.Sub(prev).Length()
		}
		prev = p
		pts = append(pts, fromV2(p))
	}
	return &curve{points: pts, length: length}
}

// Outline builds a polygon SDF from the piece contour.
func (k *SdfxKernel) Outline(points []kernel.Vec2) (kernel.Outline, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("outline needs at least 3 points, got %d", len(points))
	}
	vertices := make([]v2.Vec, len(points))
	for i, p := range points {
		vertices[i] = toV2(p)
	}
	s, err := sdf.Polygon2D(vertices)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Polygon2D: %w", err)
	}
	return &outline{s: s, area: shoelace(vertices)}, nil
}

// Union returns the box enclosing every outline.
func (k *SdfxKernel) Union(outlines []kernel.Outline) (kernel.Box, bool) {
	var bb sdf.Box2
	found := false
	for _, o := range outlines {
		if o == nil {
			continue
		}
		b := o.BoundingBox()
		box := sdf.Box2{Min: toV2(b.Min), Max: toV2(b.Max)}
		if !found {
			bb = box
			found = true
			continue
		}
		bb = bb.Extend(box)
	}
	if !found {
		return kernel.Box{}, false
	}
	return fromBox(bb), true
}

// curve is a sampled curve.
type curve struct {
	points []kernel.Vec2
	length float64
}

func (c *curve) Points() []kernel.Vec2 { return append([]kernel.Vec2(nil), c.points...) }
func (c *curve) Length() float64       { return c.length }
func (c *curve) Start() kernel.Vec2    { return c.points[0] }
func (c *curve) End() kernel.Vec2      { return c.points[len(c.points)-1] }

// outline wraps an sdf.SDF2 to implement kernel.Outline.
type outline struct {
	s    sdf.SDF2
	area float64
}

// BoundingBox returns the axis-aligned bounding box.
func (o *outline) BoundingBox() kernel.Box { return fromBox(o.s.BoundingBox()) }

func (o *outline) Area() float64 { return o.area }

// Contains reports whether p lies inside or on the contour.
func (o *outline) Contains(p kernel.Vec2) bool { return o.s.Evaluate(toV2(p)) <= 0 }

func shoelace(vs []v2.Vec) float64 {
	var sum float64
	for i := range vs {
		j := (i + 1) % len(vs)
		sum += vs[i].X*vs[j].Y - vs[j].X*vs[i].Y
	}
	return math.Abs(sum) / 2
}
