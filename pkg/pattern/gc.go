package pattern

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/chazu/selvage/pkg/config"
	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/graph"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/notify"
)

// collectGarbage runs the collector if the gate allows it. Policy "once"
// closes the gate after a successful run; an incomplete graph in a later
// cycle reopens it.
func (p *Pattern) collectGarbage(ctx context.Context) {
	if !p.cfg.CollectGarbage {
		return
	}
	if p.cfg.GCPolicy != config.GCAlways && p.gcDone {
		p.log.Debug("garbage collection gated")
		return
	}
	if _, err := p.GarbageCollect(ctx); err != nil {
		p.log.Warn("garbage collection failed", "error", err)
		return
	}
	p.gcDone = true
}

// GarbageCollect removes every modeling object and modeling tool that no
// piece depends on, directly or through other objects. The document is
// backed up before the first removal. It returns the removed ids.
func (p *Pattern) GarbageCollect(ctx context.Context) ([]ident.ID, error) {
	ctx, span := p.metrics.Start(ctx, "pattern.GarbageCollect")
	defer span.End()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type candidate struct {
		id ident.ID
		el *doc.Element
	}
	var candidates []candidate
	for _, v := range p.graph.VerticesByKind(graph.VertexModelingObject, graph.VertexModelingTool) {
		if p.graph.HasDependentOfKind(v.ID, graph.VertexPiece) {
			continue
		}
		// Only elements that live directly in a modeling section are removed.
		el := p.doc.ElementByID(v.ID)
		if el == nil || el.Parent() == nil || el.Parent().Tag() != SectionModeling {
			continue
		}
		candidates = append(candidates, candidate{id: v.ID, el: el})
	}
	p.collected = nil
	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	if len(candidates) == 0 {
		p.metrics.GCRan(0)
		return nil, nil
	}

	if name, err := p.snaps.Backup(ctx, p.doc); err != nil {
		p.log.Warn("backup before garbage collection failed", "error", err)
	} else if name != "" {
		p.log.Info("document backed up", "backup", name)
	}

	removed := ident.NewSet()
	for _, c := range candidates {
		c.el.Parent().RemoveChild(c.el)
		removed.Add(c.id)
		p.collected = append(p.collected, c.id)
		p.reg.Remove(c.id)
		p.data.RemoveObject(c.id)
		p.graph.RemoveVertex(c.id)
	}
	dropped := p.hist.Drop(removed)
	if len(removed) > 0 {
		p.doc.RefreshIDCache()
	}

	p.metrics.GCRan(len(p.collected))
	span.SetAttributes(attribute.Int("collected", len(p.collected)))
	if len(p.collected) > 0 {
		p.emit(notify.DocumentModified, p.Collected())
	}
	p.log.Info("garbage collected", "objects", len(p.collected), "history_dropped", dropped)
	return p.Collected(), nil
}
