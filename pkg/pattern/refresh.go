package pattern

import (
	"context"
	"slices"
	"time"

	"github.com/chazu/selvage/pkg/container"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/kernel"
	"github.com/chazu/selvage/pkg/notify"
	"github.com/chazu/selvage/pkg/refresh"
	"github.com/chazu/selvage/pkg/tessellate"
)

// scheduleRefresh runs the refresh at once in batch sessions. Interactive
// sessions coalesce bursts of parses behind one timer.
func (p *Pattern) scheduleRefresh() {
	if !p.cfg.Interactive {
		p.RefreshPieceGeometry()
		return
	}
	if p.refreshTimer != nil {
		p.refreshTimer.Stop()
	}
	p.timerGen++
	gen := p.timerGen
	p.timerArmed = true
	p.refreshTimer = time.AfterFunc(p.cfg.RefreshDelay, func() {
		p.loop.Post(func() {
			if gen != p.timerGen {
				return
			}
			p.timerArmed = false
			p.RefreshPieceGeometry()
		})
	})
}

// RefreshPieceGeometry refreshes the pieces touched since the last refresh,
// or every piece when none were recorded. While the user works in the
// calculation view it only marks the geometry dirty.
func (p *Pattern) RefreshPieceGeometry() {
	if p.cfg.Interactive && p.drawMode != DrawModeling {
		p.geometryDirty = true
		return
	}
	ids := p.updatePieces
	p.updatePieces = nil
	if len(ids) == 0 {
		ids = p.data.PieceIDs()
	} else {
		slices.Sort(ids)
		ids = slices.Compact(ids)
	}
	p.startRefresh(ids)
}

// RefreshDirtyGeometry refreshes every piece if the geometry was marked
// dirty.
func (p *Pattern) RefreshDirtyGeometry() {
	if !p.geometryDirty {
		return
	}
	p.RefreshDirty(p.data.PieceIDs())
}

// RefreshDirty restarts the refresh job over ids and clears the dirty flag.
// An empty list leaves the running job alone.
func (p *Pattern) RefreshDirty(ids []ident.ID) {
	p.geometryDirty = false
	p.startRefresh(ids)
}

func (p *Pattern) startRefresh(ids []ident.ID) {
	if len(ids) == 0 {
		return
	}
	p.refreshing++
	p.runner.Start(context.Background(), ids)
}

// RefreshState reports whether a refresh job is running.
func (p *Pattern) RefreshState() refresh.State { return p.runner.State() }

// refreshUnit rebuilds one piece outline. It runs on the owning loop.
func (p *Pattern) refreshUnit(_ context.Context, id ident.ID) error {
	pt, err := p.Piece(id)
	if err != nil {
		return err
	}
	contour, outline, err := tessellate.Outline(p.kernel, p.data, pt.Record)
	if err != nil {
		return err
	}
	pt.Contour = contour
	pt.Outline = outline
	pt.Bounds = outline.BoundingBox()
	pt.Area = outline.Area()
	pt.Refreshes++
	p.addDerived("PieceArea_"+pt.Record.Name, container.VarPieceArea, pt.Area, id)
	return nil
}

// finishRefresh runs on the owning loop once per job, cancelled or not.
func (p *Pattern) finishRefresh(res refresh.Result) {
	p.refreshing--
	p.log.Debug("piece refresh done", "job_id", res.Job.ID().String(), "state", res.State.String(),
		"refreshed", len(res.Job.Refreshed()))
	p.emit(notify.CheckLayout, nil)
	p.updateSceneBounds()
}

// updateSceneBounds recomputes the union of every refreshed outline.
func (p *Pattern) updateSceneBounds() {
	var outlines []kernel.Outline
	for _, pt := range p.Pieces() {
		if pt.Outline != nil {
			outlines = append(outlines, pt.Outline)
		}
	}
	p.sceneBounds, p.hasSceneBounds = p.kernel.Union(outlines)
	if p.hasSceneBounds {
		p.emit(notify.SceneBoundsChanged, p.sceneBounds)
	}
}
