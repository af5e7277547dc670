package pattern

import (
	"context"
	"fmt"

	"github.com/chazu/selvage/pkg/container"
	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/graph"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/kernel"
	"github.com/chazu/selvage/pkg/perr"
	"github.com/chazu/selvage/pkg/registry"
)

func (p *Pattern) base(id ident.ID, kind ident.ToolKind) toolBase {
	return toolBase{id: id, kind: kind, block: p.blocks.Active()}
}

// record appends t to the history and stages its vertex. Lite parses keep
// the history and graph of the last full parse.
func (p *Pattern) record(mode ParseMode, t registry.Tool, vk graph.VertexKind, deps ...ident.ID) {
	if mode != FullParse {
		return
	}
	block := p.blocks.Active()
	p.hist.Append(t.ID(), t.Kind(), block)
	p.stageVertex(mode, graph.Vertex{ID: t.ID(), Kind: vk, Block: block}, deps...)
}

// addPoint stores pt and registers its tool.
func (p *Pattern) addPoint(mode ParseMode, id ident.ID, kind ident.ToolKind, vk graph.VertexKind, pt container.Point, deps ...ident.ID) *PointTool {
	obj := pt
	p.data.AddObject(id, &obj)
	t := upsert(p, mode, &PointTool{toolBase: p.base(id, kind), Point: pt},
		func(existing *PointTool) { existing.Point = pt })
	p.record(mode, t, vk, deps...)
	return t
}

// addCurve stores c and registers its tool.
func (p *Pattern) addCurve(mode ParseMode, id ident.ID, kind ident.ToolKind, vk graph.VertexKind, c container.CurveObject, deps ...ident.ID) *CurveTool {
	obj := c
	p.data.AddObject(id, &obj)
	t := upsert(p, mode, &CurveTool{toolBase: p.base(id, kind), Curve: c},
		func(existing *CurveTool) { existing.Curve = c })
	p.record(mode, t, vk, deps...)
	return t
}

// lineVars adds the length and angle variables of the segment a-b.
func (p *Pattern) lineVars(source ident.ID, a, b container.Point) {
	suffix := a.Name + "_" + b.Name
	p.addDerived("Line_"+suffix, container.VarLineLength, a.Pos.Dist(b.Pos), source)
	p.addDerived("AngleLine_"+suffix, container.VarLineAngle, a.Pos.Angle(b.Pos), source)
}

func labelOffset(e *doc.Element) (float64, float64, error) {
	mx, err := e.Float("mx", "0")
	if err != nil {
		return 0, 0, err
	}
	my, err := e.Float("my", "0")
	return mx, my, err
}

func handleBasePoint(_ context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	id, err := e.ID()
	if err != nil {
		return err
	}
	name, err := e.String(attrName, "")
	if err != nil {
		return err
	}
	x, err := e.Float("x", "10.0")
	if err != nil {
		return err
	}
	y, err := e.Float("y", "10.0")
	if err != nil {
		return err
	}
	mx, my, err := labelOffset(e)
	if err != nil {
		return err
	}
	p.addPoint(mode, id, ident.ToolBasePoint, graph.VertexTool, container.Point{
		Name:   name,
		Pos:    kernel.Vec2{X: x, Y: y},
		Mode:   container.Calculation,
		LabelX: mx,
		LabelY: my,
	})
	return nil
}

func handleEndLine(_ context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	id, err := e.ID()
	if err != nil {
		return err
	}
	name, err := e.String(attrName, "")
	if err != nil {
		return err
	}
	baseID, err := e.RefID("basePoint")
	if err != nil {
		return err
	}
	base, err := p.data.Point(baseID)
	if err != nil {
		return err
	}
	length, lengthText, err := p.formula(e, "length", "100.0")
	if err != nil {
		return err
	}
	angle, angleText, err := p.formula(e, "angle", "0")
	if err != nil {
		return err
	}
	mx, my, err := labelOffset(e)
	if err != nil {
		return err
	}

	pt := container.Point{
		Name:   name,
		Pos:    p.kernel.EndLine(base.Pos, length, angle),
		Mode:   container.Calculation,
		LabelX: mx,
		LabelY: my,
	}
	p.addPoint(mode, id, ident.ToolEndLine, graph.VertexTool, pt, baseID)
	p.lineVars(id, *base, pt)
	p.checkFormulas(mode, id, lengthText, angleText)
	return nil
}

func handleAlongLine(_ context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	id, err := e.ID()
	if err != nil {
		return err
	}
	name, err := e.String(attrName, "")
	if err != nil {
		return err
	}
	firstID, err := e.RefID("firstPoint")
	if err != nil {
		return err
	}
	secondID, err := e.RefID("secondPoint")
	if err != nil {
		return err
	}
	first, err := p.data.Point(firstID)
	if err != nil {
		return err
	}
	second, err := p.data.Point(secondID)
	if err != nil {
		return err
	}
	length, lengthText, err := p.formula(e, "length", "100.0")
	if err != nil {
		return err
	}
	mx, my, err := labelOffset(e)
	if err != nil {
		return err
	}

	pt := container.Point{
		Name:   name,
		Pos:    p.kernel.AlongLine(first.Pos, second.Pos, length),
		Mode:   container.Calculation,
		LabelX: mx,
		LabelY: my,
	}
	p.addPoint(mode, id, ident.ToolAlongLine, graph.VertexTool, pt, firstID, secondID)
	p.lineVars(id, *first, pt)
	p.checkFormulas(mode, id, lengthText)
	return nil
}

func handleLine(_ context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	id, err := e.ID()
	if err != nil {
		return err
	}
	firstID, err := e.RefID("firstPoint")
	if err != nil {
		return err
	}
	secondID, err := e.RefID("secondPoint")
	if err != nil {
		return err
	}
	first, err := p.data.Point(firstID)
	if err != nil {
		return err
	}
	second, err := p.data.Point(secondID)
	if err != nil {
		return err
	}

	length := first.Pos.Dist(second.Pos)
	angle := first.Pos.Angle(second.Pos)
	t := upsert(p, mode, &LineTool{
		toolBase: p.base(id, ident.ToolLine),
		P1:       firstID,
		P2:       secondID,
		Length:   length,
		Angle:    angle,
	}, func(existing *LineTool) {
		existing.P1, existing.P2 = firstID, secondID
		existing.Length, existing.Angle = length, angle
	})
	p.record(mode, t, graph.VertexTool, firstID, secondID)
	p.lineVars(id, *first, *second)
	return nil
}

func handleArc(_ context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	id, err := e.ID()
	if err != nil {
		return err
	}
	centerID, err := e.RefID("center")
	if err != nil {
		return err
	}
	center, err := p.data.Point(centerID)
	if err != nil {
		return err
	}
	radius, radiusText, err := p.formula(e, "radius", "10")
	if err != nil {
		return err
	}
	f1, f1Text, err := p.formula(e, "angle1", "180")
	if err != nil {
		return err
	}
	f2, f2Text, err := p.formula(e, "angle2", "270")
	if err != nil {
		return err
	}
	curve, err := p.kernel.Arc(center.Pos, radius, f1, f2)
	if err != nil {
		return &perr.Error{Kind: perr.KindObject, Message: "can't build arc", Tag: e.Tag(), ID: id, Err: err}
	}

	name := e.OptString(attrName, fmt.Sprintf("%s_%d", center.Name, id))
	p.addCurve(mode, id, ident.ToolArc, graph.VertexTool, container.CurveObject{
		Name:  name,
		Kind:  container.CurveArc,
		Curve: curve,
		Mode:  container.Calculation,
	}, centerID)
	p.addDerived("Radius_"+name, container.VarArcRadius, radius, id)
	p.addDerived("Arc_"+name, container.VarCurveLength, curve.Length(), id)
	p.addDerived("Angle1_"+name, container.VarCurveAngle, f1, id)
	p.addDerived("Angle2_"+name, container.VarCurveAngle, f2, id)
	p.checkFormulas(mode, id, radiusText, f1Text, f2Text)
	return nil
}

func handleCubicBezier(_ context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	id, err := e.ID()
	if err != nil {
		return err
	}
	var (
		ids [4]ident.ID
		pts [4]*container.Point
	)
	for i := range ids {
		if ids[i], err = e.RefID(fmt.Sprintf("point%d", i+1)); err != nil {
			return err
		}
		if pts[i], err = p.data.Point(ids[i]); err != nil {
			return err
		}
	}
	curve := p.kernel.CubicBezier(pts[0].Pos, pts[1].Pos, pts[2].Pos, pts[3].Pos)

	name := e.OptString(attrName, pts[0].Name+"_"+pts[3].Name)
	p.addCurve(mode, id, ident.ToolCubicBezier, graph.VertexTool, container.CurveObject{
		Name:  name,
		Kind:  container.CurveSpline,
		Curve: curve,
		Mode:  container.Calculation,
	}, ids[:]...)
	p.addDerived("Spl_"+name, container.VarCurveLength, curve.Length(), id)
	return nil
}
