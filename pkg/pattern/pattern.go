// Package pattern is the re-parse orchestrator. It walks a pattern document,
// materializes tools into the registry, records the history ledger, builds
// the dependency graph, collects unreachable modeling objects and schedules
// piece geometry refreshes.
//
// A Pattern is owned by one goroutine, the one that drives its loop. Worker
// tasks never touch the registry, history, container or document; they hand
// results back through the loop.
package pattern

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/chazu/selvage/pkg/config"
	"github.com/chazu/selvage/pkg/container"
	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/engine"
	"github.com/chazu/selvage/pkg/graph"
	"github.com/chazu/selvage/pkg/history"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/kernel"
	"github.com/chazu/selvage/pkg/kernel/sdfx"
	"github.com/chazu/selvage/pkg/loop"
	"github.com/chazu/selvage/pkg/metrics"
	"github.com/chazu/selvage/pkg/notify"
	"github.com/chazu/selvage/pkg/piece"
	"github.com/chazu/selvage/pkg/refresh"
	"github.com/chazu/selvage/pkg/registry"
	"github.com/chazu/selvage/pkg/snapshot"
	"github.com/chazu/selvage/pkg/workpool"
)

// UndoStack receives undo requests raised while a parse was running.
type UndoStack interface {
	Undo()
}

// Options configures a Pattern. Zero values get working defaults.
type Options struct {
	Config     config.Config
	Kernel     kernel.Kernel
	Calculator *engine.Calculator
	Pool       *workpool.Pool
	Loop       *loop.Loop
	Notifier   notify.Notifier
	Snapshots  snapshot.Snapshotter
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Undo       UndoStack
	// Handlers overrides entries of the default dispatch table. A nil
	// handler removes the entry.
	Handlers Handlers
}

// Pattern is the orchestrator for one document.
type Pattern struct {
	doc      *doc.Document
	cfg      config.Config
	kernel   kernel.Kernel
	calc     *engine.Calculator
	pool     *workpool.Pool
	loop     *loop.Loop
	notifier notify.Notifier
	snaps    snapshot.Snapshotter
	metrics  *metrics.Metrics
	log      *slog.Logger
	undo     UndoStack
	handlers Handlers

	assembler *piece.Assembler
	runner    *refresh.Runner

	reg    *registry.Registry
	hist   *history.Ledger
	data   *container.Data
	graph  *graph.Graph
	stage  *graph.Graph
	blocks *Blocks

	mode           ParseMode
	parsingDone    bool
	completionSent bool
	gcDone         bool
	editable       bool
	drawMode       DrawMode
	currentTool    ident.ID
	collected      []ident.ID

	checks  checkSet
	sources map[string][]ident.ID

	updatePieces   []ident.ID
	geometryDirty  bool
	refreshing     int
	refreshTimer   *time.Timer
	timerGen       uint64
	timerArmed     bool
	sceneBounds    kernel.Box
	hasSceneBounds bool

	incIndex      int
	progress      int
	progressTotal int

	deferred []func()
}

// New builds the orchestrator for d. It fails when the dispatch table lacks
// a required handler.
func New(d *doc.Document, opts Options) (*Pattern, error) {
	handlers := DefaultHandlers()
	for k, h := range opts.Handlers {
		if h == nil {
			delete(handlers, k)
			continue
		}
		handlers[k] = h
	}
	if err := handlers.Validate(); err != nil {
		return nil, err
	}

	p := &Pattern{
		doc:      d,
		cfg:      opts.Config,
		kernel:   opts.Kernel,
		calc:     opts.Calculator,
		pool:     opts.Pool,
		loop:     opts.Loop,
		notifier: opts.Notifier,
		snaps:    opts.Snapshots,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		undo:     opts.Undo,
		handlers: handlers,
		reg:      registry.New(),
		hist:     history.New(),
		data:     container.New(),
		graph:    graph.New(),
		stage:    graph.New(),
		blocks:   newBlocks(),
		editable: true,
	}
	if p.cfg.GCPolicy == "" {
		p.cfg = config.Default()
	}
	if p.kernel == nil {
		p.kernel = sdfx.New()
	}
	if p.calc == nil {
		p.calc = engine.NewCalculator()
	}
	if p.pool == nil {
		size := p.cfg.Workers
		if size <= 0 {
			size = runtime.GOMAXPROCS(0)
		}
		p.pool = workpool.New(size)
	}
	if p.loop == nil {
		p.loop = loop.New()
	}
	if p.notifier == nil {
		p.notifier = notify.Nop{}
	}
	if p.snaps == nil {
		p.snaps = snapshot.Nop{}
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	p.assembler = piece.NewAssembler(p.pool)
	p.runner = refresh.NewRunner(p.loop, p.refreshUnit, p.finishRefresh,
		refresh.WithLogger(p.log), refresh.WithMetrics(p.metrics))
	return p, nil
}

// Document returns the document being parsed.
func (p *Pattern) Document() *doc.Document { return p.doc }

// Loop returns the owning loop. Background work posts here.
func (p *Pattern) Loop() *loop.Loop { return p.loop }

// Registry returns the live tools.
func (p *Pattern) Registry() *registry.Registry { return p.reg }

// History returns the creation-order ledger.
func (p *Pattern) History() *history.Ledger { return p.hist }

// Data returns the computed objects and variables.
func (p *Pattern) Data() *container.Data { return p.data }

// Graph returns the published dependency graph.
func (p *Pattern) Graph() *graph.Graph { return p.graph }

// Blocks returns the pattern blocks.
func (p *Pattern) Blocks() *Blocks { return p.blocks }

func (p *Pattern) Config() config.Config { return p.cfg }

// Editable reports whether the last guarded parse succeeded.
func (p *Pattern) Editable() bool { return p.editable }

// GeometryDirty reports whether piece geometry is waiting for an explicit
// refresh.
func (p *Pattern) GeometryDirty() bool { return p.geometryDirty }

// DrawMode returns the presentation layer's current view.
func (p *Pattern) DrawMode() DrawMode { return p.drawMode }

// SetDrawMode records the presentation layer's current view.
func (p *Pattern) SetDrawMode(m DrawMode) { p.drawMode = m }

// CurrentToolID returns the tool selected by the last successful lite parse.
func (p *Pattern) CurrentToolID() ident.ID { return p.currentTool }

// Collected returns the ids removed by the last collection.
func (p *Pattern) Collected() []ident.ID { return append([]ident.ID(nil), p.collected...) }

// SceneBounds returns the union of piece outlines from the last refresh.
func (p *Pattern) SceneBounds() (kernel.Box, bool) { return p.sceneBounds, p.hasSceneBounds }

// LastToolID returns the most recently created tool, or NullID.
func (p *Pattern) LastToolID() ident.ID {
	rec, ok := p.hist.Last()
	if !ok {
		return ident.NullID
	}
	return rec.ID
}

// LastToolIDInBlock returns the most recent tool of block, or NullID.
func (p *Pattern) LastToolIDInBlock(block string) ident.ID {
	return p.hist.LastInBlock(block)
}

// LocalHistory returns the records of block in creation order.
func (p *Pattern) LocalHistory(block string) []history.Record {
	return p.hist.Local(block)
}

// Piece returns the piece tool registered under id.
func (p *Pattern) Piece(id ident.ID) (*PieceTool, error) {
	t, err := p.reg.Get(id)
	if err != nil {
		return nil, err
	}
	pt, ok := t.(*PieceTool)
	if !ok {
		return nil, fmt.Errorf("object %s is a %s, not a piece", id, t.Kind())
	}
	return pt, nil
}

// Pieces returns every registered piece tool in id order.
func (p *Pattern) Pieces() []*PieceTool {
	var out []*PieceTool
	for _, id := range p.data.PieceIDs() {
		if pt, err := p.Piece(id); err == nil {
			out = append(out, pt)
		}
	}
	return out
}

// EvalFormula evaluates text against the current variables.
func (p *Pattern) EvalFormula(text string) (float64, bool) {
	return p.calc.EvalFormula(p.data.Values(), text)
}

// Settle runs the owning loop until no formula check, refresh job or armed
// refresh timer is outstanding.
func (p *Pattern) Settle(ctx context.Context) error {
	return p.loop.RunUntil(ctx, p.settled)
}

func (p *Pattern) settled() bool {
	return p.checks.pending == 0 && p.refreshing == 0 && !p.timerArmed
}

// Close stops background work. The pattern must not be parsed afterwards.
func (p *Pattern) Close() {
	p.cancelChecks()
	if p.refreshTimer != nil {
		p.refreshTimer.Stop()
		p.timerArmed = false
	}
	p.runner.Cancel()
}

func (p *Pattern) emit(e notify.Event, payload any) {
	p.notifier.Notify(notify.Notification{Event: e, Payload: payload})
}
