package pattern

import (
	"context"

	"github.com/chazu/selvage/pkg/container"
	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/graph"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/perr"
	"github.com/chazu/selvage/pkg/piece"
)

func handleNodePoint(_ context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	id, err := e.ID()
	if err != nil {
		return err
	}
	srcID, err := e.RefID(attrIDObject)
	if err != nil {
		return err
	}
	src, err := p.data.Point(srcID)
	if err != nil {
		return err
	}
	mx, my, err := labelOffset(e)
	if err != nil {
		return err
	}
	pt := *src
	pt.Mode = container.Modeling
	pt.LabelX, pt.LabelY = mx, my
	p.addPoint(mode, id, ident.ToolNodePoint, graph.VertexModelingObject, pt, srcID)
	return nil
}

func handleNodeArc(_ context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	return nodeCurve(p, e, mode, container.CurveArc, ident.ToolNodeArc)
}

func handleNodeSpline(_ context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	return nodeCurve(p, e, mode, container.CurveSpline, ident.ToolNodeSpline)
}

// nodeCurve copies a calculation curve into the modeling section.
func nodeCurve(p *Pattern, e *doc.Element, mode ParseMode, kind container.CurveKind, tool ident.ToolKind) error {
	id, err := e.ID()
	if err != nil {
		return err
	}
	srcID, err := e.RefID(attrIDObject)
	if err != nil {
		return err
	}
	src, err := p.data.Curve(srcID)
	if err != nil {
		return err
	}
	if src.Kind != kind {
		return perr.Object(e.Tag(), "object %s is a %s, not a %s", srcID, src.Kind, kind)
	}
	c := *src
	c.Mode = container.Modeling
	c.Source = srcID
	p.addCurve(mode, id, tool, graph.VertexModelingObject, c, srcID)
	return nil
}

func handlePin(_ context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	id, err := e.ID()
	if err != nil {
		return err
	}
	srcID, err := e.RefID(attrIDObject)
	if err != nil {
		return err
	}
	if _, err := p.data.Point(srcID); err != nil {
		return err
	}
	t := upsert(p, mode, &PinTool{toolBase: p.base(id, ident.ToolPin), Point: srcID},
		func(existing *PinTool) { existing.Point = srcID })
	p.record(mode, t, graph.VertexModelingTool, srcID)
	return nil
}

// handlePlaceLabel skips a label whose center point is gone. That happens
// when the point was deleted while the label stayed in the document.
func handlePlaceLabel(_ context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	id, err := e.ID()
	if err != nil {
		return err
	}
	centerID, err := e.RefID(attrIDObject)
	if err != nil {
		return err
	}
	if _, err := p.data.Point(centerID); err != nil {
		if perr.IsKind(err, perr.KindBadID) {
			p.log.Debug("broken relation: place label center was deleted", "id", id.String(), "center", centerID.String())
			return nil
		}
		return err
	}
	width, widthText := p.lenientFormula(e, "width", "1.0")
	height, heightText := p.lenientFormula(e, "height", "1.0")
	angle, angleText := p.lenientFormula(e, "angle", "0.0")
	labelType, err := e.Uint("placeLabelType", "0")
	if err != nil {
		return err
	}

	fresh := &PlaceLabelTool{
		toolBase: p.base(id, ident.ToolPlaceLabel),
		Center:   centerID,
		Width:    width,
		Height:   height,
		Angle:    angle,
		Type:     int(labelType),
	}
	t := upsert(p, mode, fresh, func(existing *PlaceLabelTool) {
		existing.Center = fresh.Center
		existing.Width, existing.Height, existing.Angle = fresh.Width, fresh.Height, fresh.Angle
		existing.Type = fresh.Type
	})
	p.record(mode, t, graph.VertexModelingTool, centerID)
	p.checkFormulas(mode, id, widthText, heightText, angleText)
	return nil
}

func handlePath(_ context.Context, p *Pattern, e *doc.Element, mode ParseMode) error {
	id, err := e.ID()
	if err != nil {
		return err
	}
	path, err := piece.ParsePath(e)
	if err != nil {
		return err
	}
	for _, n := range path.Nodes {
		if _, err := p.data.Object(n.ID); err != nil {
			return err
		}
	}
	p.data.AddPath(id, path)
	t := upsert(p, mode, &PathTool{toolBase: p.base(id, ident.ToolPiecePath), Path: path},
		func(existing *PathTool) { existing.Path = path })
	p.record(mode, t, graph.VertexModelingObject, path.NodeIDs()...)
	return nil
}

// handleGroup reads a group's id. Groups are kept in the document but not
// interpreted.
func handleGroup(_ context.Context, p *Pattern, e *doc.Element, _ ParseMode) error {
	if _, err := e.ID(); err != nil {
		return err
	}
	p.log.Debug("group skipped", "name", e.OptString(attrName, ""))
	return nil
}
