// Package tessellate walks piece paths and produces polylines and outlines
// using a geometry kernel. One polyline is produced per piece.
package tessellate

import (
	"fmt"
	"slices"

	"github.com/chazu/selvage/pkg/container"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/kernel"
	"github.com/chazu/selvage/pkg/piece"
)

// Resolver looks up computed objects by id. *container.Data implements it.
type Resolver interface {
	Object(id ident.ID) (container.Object, error)
}

// Result is the tessellated form of one piece.
type Result struct {
	ID      ident.ID         `json:"id"`
	Name    string           `json:"name"`
	Contour *kernel.Polyline `json:"contour"`
	Bounds  kernel.Box       `json:"bounds"`
	Area    float64          `json:"area"`
}

// Tessellate produces one result per piece, in input order. The
// tessellator is read-only and never mutates the resolver.
func Tessellate(k kernel.Kernel, r Resolver, recs []piece.Record) ([]Result, error) {
	out := make([]Result, 0, len(recs))
	for _, rec := range recs {
		pl, ol, err := Outline(k, r, rec)
		if err != nil {
			return nil, fmt.Errorf("tessellate: piece %s: %w", rec.ID, err)
		}
		out = append(out, Result{
			ID:      rec.ID,
			Name:    rec.Name,
			Contour: pl,
			Bounds:  ol.BoundingBox(),
			Area:    ol.Area(),
		})
	}
	return out, nil
}

// Outline tessellates the piece path and closes it into a kernel outline.
func Outline(k kernel.Kernel, r Resolver, rec piece.Record) (*kernel.Polyline, kernel.Outline, error) {
	pl, err := Path(r, rec.Path, rec.Name)
	if err != nil {
		return nil, nil, err
	}
	ol, err := k.Outline(pl.Points)
	if err != nil {
		return nil, nil, fmt.Errorf("outline of %q: %w", rec.Name, err)
	}
	return pl, ol, nil
}

// Path walks the nodes of p in order. Excluded nodes are skipped.
func Path(r Resolver, p piece.Path, name string) (*kernel.Polyline, error) {
	pl := &kernel.Polyline{Name: name}
	for _, n := range p.Nodes {
		if n.Excluded {
			continue
		}
		if err := walkNode(r, n, pl); err != nil {
			return nil, err
		}
	}
	return pl, nil
}

// walkNode appends the geometry of one node to pl.
func walkNode(r Resolver, n piece.Node, pl *kernel.Polyline) error {
	obj, err := r.Object(n.ID)
	if err != nil {
		return err
	}
	switch n.Type {
	case piece.NodePoint:
		return handlePoint(obj, n, pl)
	case piece.NodeArc, piece.NodeSpline:
		return handleCurve(obj, n, pl)
	default:
		return fmt.Errorf("unknown node type: %v", n.Type)
	}
}

func handlePoint(obj container.Object, n piece.Node, pl *kernel.Polyline) error {
	p, ok := obj.(*container.Point)
	if !ok {
		return fmt.Errorf("node %s: expected point, got %T", n.ID, obj)
	}
	pl.Append(p.Pos)
	return nil
}

// handleCurve appends the curve's sample points, reversed when the node says
// so.
func handleCurve(obj container.Object, n piece.Node, pl *kernel.Polyline) error {
	c, ok := obj.(*container.CurveObject)
	if !ok {
		return fmt.Errorf("node %s: expected curve, got %T", n.ID, obj)
	}
	pts := c.Curve.Points()
	if n.Reverse {
		slices.Reverse(pts)
	}
	pl.Append(pts...)
	return nil
}
