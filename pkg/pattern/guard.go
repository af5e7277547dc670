package pattern

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/notify"
	"github.com/chazu/selvage/pkg/perr"
)

// FullParseTree loads the whole document inside the error boundary.
func (p *Pattern) FullParseTree(ctx context.Context) error {
	ok, err := p.guard(ctx, func(ctx context.Context) error {
		return p.Parse(ctx, FullParse)
	})
	if !ok {
		return err
	}
	p.setCurrentData()
	p.emit(notify.FullUpdateFromFile, nil)
	return nil
}

// LiteParseTree recomputes values after an edit. The active block is kept
// across the parse. Full parses go through FullParseTree instead.
func (p *Pattern) LiteParseTree(ctx context.Context, mode ParseMode) error {
	if mode == FullParse {
		p.log.Warn("full parse requested through lite parse; ignoring")
		return nil
	}
	active := p.blocks.Active()
	ok, err := p.guard(ctx, func(ctx context.Context) error {
		if mode == LitePiecePartial {
			return p.ParseCurrentPP(ctx)
		}
		return p.Parse(ctx, mode)
	})
	if !ok {
		return err
	}
	p.blocks.SetActive(active)
	p.setCurrentData()
	p.emit(notify.FullUpdateFromFile, nil)
	p.updateSceneBounds()
	return nil
}

// ParseCurrentPP lite-parses the active block only.
func (p *Pattern) ParseCurrentPP(ctx context.Context) error {
	if draw := p.activeDrawElement(); draw != nil {
		if err := p.parseDrawElement(ctx, draw, LiteParse); err != nil {
			return err
		}
	}
	p.emit(notify.CheckLayout, nil)
	p.scheduleRefresh()
	return nil
}

func (p *Pattern) activeDrawElement() *doc.Element {
	active := p.blocks.Active()
	if active == "" {
		return nil
	}
	for _, e := range p.doc.Root().Children() {
		if e.Tag() == tagDraw && e.OptString(attrName, "") == active {
			return e
		}
	}
	return nil
}

// guard is the per-parse error boundary. It reports whether fn succeeded.
// An undo request is queued rather than reported, so ok is false while err
// is nil.
func (p *Pattern) guard(ctx context.Context, fn func(context.Context) error) (ok bool, err error) {
	p.editable = true
	p.emit(notify.EditingEnabled, nil)
	defer p.DrainDeferred()
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, p.fail(&perr.Error{
				Kind:    perr.KindAllocation,
				Message: "parse aborted",
				Details: fmt.Sprint(r),
			})
		}
	}()

	if err := fn(ctx); err != nil {
		return false, p.fail(err)
	}
	return true, nil
}

// fail classifies err, disables editing and turns it into the result the
// caller sees.
func (p *Pattern) fail(err error) error {
	if perr.IsKind(err, perr.KindUndo) {
		p.log.Debug("undo requested during parse")
		p.deferred = append(p.deferred, p.runUndo)
		return nil
	}
	p.cancelChecks()

	var pe *perr.Error
	if !errors.As(err, &pe) {
		pe = &perr.Error{Kind: perr.KindGeneric, Message: "parse failed", Err: err}
	}
	p.log.Error(pe.Summary(), "kind", pe.Kind.String(), "error", err)
	p.log.Debug("parse failure details", "tag", pe.Tag, "id", pe.ID.String(), "details", pe.Details)
	p.metrics.ParseFailed(pe.Kind.String())

	p.editable = false
	p.emit(notify.EditingDisabled, pe)
	if !p.cfg.Interactive {
		return &perr.ExitError{Code: perr.ExitNoInput, Err: pe}
	}
	return pe
}

func (p *Pattern) runUndo() {
	if p.undo == nil {
		p.log.Warn("undo requested but no undo stack is attached")
		return
	}
	p.undo.Undo()
}

// DrainDeferred runs the commands queued during the last parse cycle and
// returns how many ran.
func (p *Pattern) DrainDeferred() int {
	n := 0
	for len(p.deferred) > 0 {
		cmds := p.deferred
		p.deferred = nil
		for _, cmd := range cmds {
			cmd()
			n++
		}
	}
	return n
}

// setCurrentData selects the last tool of the active block.
func (p *Pattern) setCurrentData() {
	if p.drawMode != DrawCalculation || p.blocks.Len() == 0 {
		return
	}
	id := p.hist.LastInBlock(p.blocks.Active())
	if id.IsNull() || !p.reg.Has(id) {
		return
	}
	p.currentTool = id
}
