package tessellate_test

import (
	"math"
	"testing"

	"github.com/chazu/selvage/pkg/container"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/kernel"
	"github.com/chazu/selvage/pkg/kernel/sdfx"
	"github.com/chazu/selvage/pkg/piece"
	"github.com/chazu/selvage/pkg/tessellate"
)

// newKernel returns a fresh sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.New()
}

// squareData stores the four corners of a 100x50 rectangle as points 1-4.
func squareData() *container.Data {
	d := container.New()
	d.AddObject(1, &container.Point{Name: "A", Pos: kernel.Vec2{X: 0, Y: 0}})
	d.AddObject(2, &container.Point{Name: "B", Pos: kernel.Vec2{X: 100, Y: 0}})
	d.AddObject(3, &container.Point{Name: "C", Pos: kernel.Vec2{X: 100, Y: 50}})
	d.AddObject(4, &container.Point{Name: "D", Pos: kernel.Vec2{X: 0, Y: 50}})
	return d
}

func pointPath(ids ...ident.ID) piece.Path {
	var p piece.Path
	for _, id := range ids {
		p.Nodes = append(p.Nodes, piece.Node{ID: id, Type: piece.NodePoint})
	}
	return p
}

func TestRectanglePiece(t *testing.T) {
	k := newKernel()
	d := squareData()
	rec := piece.Record{ID: 10, Name: "front", Path: pointPath(1, 2, 3, 4)}

	results, err := tessellate.Tessellate(k, d, []piece.Record{rec})
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	if r.Contour.IsEmpty() {
		t.Fatal("contour should not be empty")
	}
	if r.Contour.Name != "front" {
		t.Errorf("expected contour name %q, got %q", "front", r.Contour.Name)
	}
	if r.Contour.PointCount() != 4 {
		t.Errorf("expected 4 points, got %d", r.Contour.PointCount())
	}
	if math.Abs(r.Area-5000) > 1e-6 {
		t.Errorf("expected area 5000, got %f", r.Area)
	}
	if math.Abs(r.Bounds.Width()-100) > 1e-3 || math.Abs(r.Bounds.Height()-50) > 1e-3 {
		t.Errorf("unexpected bounds %+v", r.Bounds)
	}
}

func TestExcludedNodeSkipped(t *testing.T) {
	d := squareData()
	p := pointPath(1, 2, 3, 4)
	p.Nodes[2].Excluded = true

	pl, err := tessellate.Path(d, p, "x")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if pl.PointCount() != 3 {
		t.Errorf("expected 3 points, got %d", pl.PointCount())
	}
}

func TestCurveNodeReversed(t *testing.T) {
	k := newKernel()
	d := squareData()
	curve := k.CubicBezier(
		kernel.Vec2{X: 100, Y: 50},
		kernel.Vec2{X: 70, Y: 80},
		kernel.Vec2{X: 30, Y: 80},
		kernel.Vec2{X: 0, Y: 50},
	)
	d.AddObject(5, &container.CurveObject{Name: "Spl_C_D", Kind: container.CurveSpline, Curve: curve})

	p := pointPath(1, 2)
	p.Nodes = append(p.Nodes, piece.Node{ID: 5, Type: piece.NodeSpline, Reverse: true})

	pl, err := tessellate.Path(d, p, "hem")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	last := pl.Points[len(pl.Points)-1]
	if last.Dist(kernel.Vec2{X: 100, Y: 50}) > 1e-9 {
		t.Errorf("reversed spline should end at its start point, got %+v", last)
	}
}

func TestMissingObject(t *testing.T) {
	d := squareData()
	_, err := tessellate.Path(d, pointPath(1, 99), "x")
	if err == nil {
		t.Fatal("expected error for missing object")
	}
}

func TestWrongObjectType(t *testing.T) {
	d := squareData()
	p := piece.Path{Nodes: []piece.Node{{ID: 1, Type: piece.NodeArc}}}
	if _, err := tessellate.Path(d, p, "x"); err == nil {
		t.Fatal("expected error when a point is used as an arc")
	}
}

func TestDegenerateOutline(t *testing.T) {
	k := newKernel()
	d := squareData()
	rec := piece.Record{ID: 11, Name: "sliver", Path: pointPath(1, 2)}
	if _, _, err := tessellate.Outline(k, d, rec); err == nil {
		t.Fatal("expected error for a two point outline")
	}
}

func TestEmptyInput(t *testing.T) {
	results, err := tessellate.Tessellate(newKernel(), container.New(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
