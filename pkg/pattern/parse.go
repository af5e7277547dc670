package pattern

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chazu/selvage/pkg/container"
	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/graph"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/kernel"
	"github.com/chazu/selvage/pkg/notify"
	"github.com/chazu/selvage/pkg/perr"
	"github.com/chazu/selvage/pkg/workpool"
)

// Root-level tags.
const (
	tagDraw       = "draw"
	tagIncrements = "increments"
	tagPreview    = "previewCalculations"
	tagIncrement  = "increment"
	attrName      = "name"
	attrType      = "type"
	attrIDObject  = "idObject"
	attrFormula   = "formula"
)

// Prepare resets the computed state for a parse in mode.
func (p *Pattern) Prepare(mode ParseMode) {
	p.emit(notify.CancelLabelRendering, nil)

	// A cycle that never completed its graph gets another chance to collect.
	if !p.graphComplete() {
		p.gcDone = false
	}

	p.cancelChecks()
	p.stage.Clear()

	switch mode {
	case FullParse:
		p.doc.InvalidateIDCache()
		p.data.Clear()
		p.reg.Clear()
		p.hist.Clear()
		p.blocks.Clear()
		p.updatePieces = nil
		p.hasSceneBounds = false
		p.sceneBounds = kernel.Box{}
		p.incIndex = 0
	case LiteParse:
		p.data.ClearVariables(derivedKinds...)
	case FullLiteParse:
		p.data.ClearVariables(derivedKinds...)
		p.data.ClearVariables(container.VarIncrement, container.VarPreview)
		p.data.ClearUniqueNames()
		p.incIndex = 0
	}
	p.sources = nil
	p.mode = mode
	p.parsingDone = false
	p.completionSent = false
}

var derivedKinds = []container.VarKind{
	container.VarLineLength,
	container.VarLineAngle,
	container.VarCurveLength,
	container.VarArcRadius,
	container.VarCurveAngle,
	container.VarPieceArea,
}

// Parse prepares for mode and walks the document root. LitePiecePartial
// parses only the active block.
func (p *Pattern) Parse(ctx context.Context, mode ParseMode) (err error) {
	if mode == LitePiecePartial {
		return p.ParseCurrentPP(ctx)
	}
	start := time.Now()
	ctx, span := p.metrics.Start(ctx, "pattern.Parse", attribute.String("mode", mode.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			// Checks from a failed cycle must not edit the published graph.
			p.cancelChecks()
		}
		span.End()
	}()

	p.Prepare(mode)
	p.emit(notify.PreParse, mode)
	p.log.Debug("parse started", "mode", mode.String(), "path", p.doc.Path())

	if mode == FullParse {
		p.progress = 0
		if p.progressTotal, err = p.ElementsToParse(ctx); err != nil {
			return err
		}
	}

	for _, e := range p.doc.Root().Children() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.parseRootElement(ctx, e, mode); err != nil {
			return err
		}
	}

	if mode == FullParse {
		p.graph, p.stage = p.stage, p.graph
		p.stage.Clear()
	}
	p.parsingDone = true
	p.metrics.ObserveParse(mode.String(), time.Since(start))
	span.SetAttributes(
		attribute.Int("tools", p.reg.Len()),
		attribute.Int("vertices", p.graph.VertexCount()),
		attribute.Int("pending_checks", p.checks.pending))
	p.log.Info("parse finished", "mode", mode.String(), "tools", p.reg.Len(),
		"history", p.hist.Len(), "pending_checks", p.checks.pending, "took", time.Since(start))

	p.maybeComplete(ctx)
	p.scheduleRefresh()
	return nil
}

func (p *Pattern) parseRootElement(ctx context.Context, e *doc.Element, mode ParseMode) error {
	switch e.Tag() {
	case tagDraw:
		name, err := e.String(attrName, "")
		if err != nil {
			return err
		}
		if mode == FullParse {
			p.blocks.SetActiveIndex(p.blocks.Add(name))
		} else if !p.blocks.SetActive(name) {
			return perr.Object(tagDraw, "unknown pattern block %q", name)
		}
		return p.parseDrawElement(ctx, e, mode)
	case tagIncrements:
		if mode == LiteParse {
			return nil
		}
		if err := p.parseIncrements(e, container.VarIncrement); err != nil {
			return err
		}
		if mode == FullParse {
			p.progress += len(e.Children())
			p.emit(notify.MadeProgress, notify.Progress{Done: p.progress, Total: p.progressTotal})
		}
		return nil
	case tagPreview:
		if mode == LiteParse {
			return nil
		}
		return p.parseIncrements(e, container.VarPreview)
	default:
		p.log.Debug("ignoring root element", "tag", e.Tag())
		return nil
	}
}

// parseDrawElement dispatches the sections of one pattern block.
func (p *Pattern) parseDrawElement(ctx context.Context, draw *doc.Element, mode ParseMode) error {
	for _, sec := range draw.Children() {
		switch sec.Tag() {
		case SectionCalculation, SectionModeling, SectionDetails, SectionGroups:
		default:
			return perr.Object(sec.Tag(), "wrong tag name %q in pattern block", sec.Tag())
		}
		if err := p.parseSection(ctx, sec, mode); err != nil {
			return err
		}
		if mode == FullParse && sec.Tag() != SectionGroups {
			p.progress += len(sec.Children())
			p.emit(notify.MadeProgress, notify.Progress{Done: p.progress, Total: p.progressTotal})
		}
	}
	return nil
}

func (p *Pattern) parseSection(ctx context.Context, sec *doc.Element, mode ParseMode) error {
	for _, e := range sec.Children() {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, err := p.lookup(sec.Tag(), e)
		if err != nil {
			return err
		}
		if h == nil {
			p.log.Debug("ignoring element", "section", sec.Tag(), "tag", e.Tag())
			continue
		}
		if err := h(ctx, p, e, mode); err != nil {
			return wrapBadID(e, err)
		}
	}
	return nil
}

// parseIncrements evaluates increments in document order. Each increment
// sees the ones declared before it.
func (p *Pattern) parseIncrements(sec *doc.Element, kind container.VarKind) error {
	for _, e := range sec.Children() {
		if e.Tag() != tagIncrement {
			continue
		}
		name, err := e.String(attrName, "")
		if err != nil {
			return err
		}
		value, formula, err := p.formula(e, attrFormula, "0")
		if err != nil {
			if pe, ok := err.(*perr.Error); ok {
				pe.Message = "increment " + name + ": " + pe.Message
			}
			return err
		}
		p.data.AddVariable(container.Variable{
			Name:    name,
			Kind:    kind,
			Value:   value,
			Formula: formula,
			Index:   p.incIndex,
		})
		p.incIndex++
	}
	return nil
}

// ElementsToParse counts the children of every calculation, details,
// modeling and increments section. The scans run on the worker pool.
func (p *Pattern) ElementsToParse(ctx context.Context) (int, error) {
	tags := []string{SectionCalculation, SectionDetails, SectionModeling, tagIncrements}
	return workpool.MapReduce(ctx, p.pool, tags,
		func(_ context.Context, tag string) (int, error) {
			n := 0
			for _, e := range p.doc.ElementsByTagName(tag) {
				n += len(e.Children())
			}
			return n, nil
		},
		func(acc, n int) int { return acc + n },
		0)
}

// graphComplete reports whether the published graph is final for the
// current cycle.
func (p *Pattern) graphComplete() bool {
	return p.parsingDone && p.checks.pending == 0 && p.graph.Complete()
}

// maybeComplete fires the completion callback once per cycle.
func (p *Pattern) maybeComplete(ctx context.Context) {
	if p.completionSent || !p.graphComplete() {
		return
	}
	p.completionSent = true
	p.emit(notify.DependencyGraphCompleted, nil)
	if p.mode == FullParse {
		p.collectGarbage(ctx)
	}
}

// stageVertex adds a vertex to the graph being built. Only full parses
// build a graph.
func (p *Pattern) stageVertex(mode ParseMode, v graph.Vertex, deps ...ident.ID) {
	if mode != FullParse {
		return
	}
	p.stage.AddVertex(v)
	for _, from := range deps {
		p.stage.AddEdge(from, v.ID)
	}
}
