package pattern

import (
	"github.com/chazu/selvage/pkg/container"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/kernel"
	"github.com/chazu/selvage/pkg/piece"
	"github.com/chazu/selvage/pkg/registry"
)

// toolBase carries the identity every tool shares. A tool's identity never
// changes after registration; lite parses only replace the value it holds.
type toolBase struct {
	id    ident.ID
	kind  ident.ToolKind
	block string
}

func (t *toolBase) ID() ident.ID         { return t.id }
func (t *toolBase) Kind() ident.ToolKind { return t.kind }

// Block returns the pattern block the tool was created in.
func (t *toolBase) Block() string { return t.block }

// PointTool produces a calculation or modeling point.
type PointTool struct {
	toolBase
	Point container.Point
}

// LineTool connects two points.
type LineTool struct {
	toolBase
	P1, P2 ident.ID
	Length float64
	Angle  float64
}

// CurveTool produces an arc or spline, or a modeling copy of one.
type CurveTool struct {
	toolBase
	Curve container.CurveObject
}

// PathTool produces an internal piece path.
type PathTool struct {
	toolBase
	Path piece.Path
}

// PinTool marks a point used by a piece label or grainline.
type PinTool struct {
	toolBase
	Point ident.ID
}

// PlaceLabelTool places a marker on a piece.
type PlaceLabelTool struct {
	toolBase
	Center ident.ID
	Width  float64
	Height float64
	Angle  float64
	Type   int
}

// PieceTool is a detail. Its outline is filled in by the geometry refresh.
type PieceTool struct {
	toolBase
	Record  piece.Record
	Contour *kernel.Polyline
	Outline kernel.Outline
	Bounds  kernel.Box
	Area    float64
	// Refreshes counts completed geometry refreshes.
	Refreshes int
}

var (
	_ registry.Tool = (*PointTool)(nil)
	_ registry.Tool = (*LineTool)(nil)
	_ registry.Tool = (*CurveTool)(nil)
	_ registry.Tool = (*PathTool)(nil)
	_ registry.Tool = (*PinTool)(nil)
	_ registry.Tool = (*PlaceLabelTool)(nil)
	_ registry.Tool = (*PieceTool)(nil)
)

// upsert registers fresh on a full parse. Otherwise the tool already
// registered under the same id is updated in place and returned, keeping its
// identity; fresh is only registered when no compatible tool exists.
func upsert[T registry.Tool](p *Pattern, mode ParseMode, fresh T, update func(existing T)) T {
	if mode != FullParse {
		if t, err := p.reg.Get(fresh.ID()); err == nil {
			if existing, ok := t.(T); ok {
				update(existing)
				return existing
			}
		}
	}
	p.reg.Add(fresh)
	return fresh
}
