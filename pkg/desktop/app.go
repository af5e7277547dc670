// Package desktop is the Wails backend. It exposes the orchestrator to the
// frontend through bound methods.
package desktop

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"runtime"

	"github.com/chazu/selvage/pkg/config"
	"github.com/chazu/selvage/pkg/doc"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/kernel"
	"github.com/chazu/selvage/pkg/kernel/sdfx"
	"github.com/chazu/selvage/pkg/loop"
	"github.com/chazu/selvage/pkg/metrics"
	"github.com/chazu/selvage/pkg/notify"
	"github.com/chazu/selvage/pkg/pattern"
	"github.com/chazu/selvage/pkg/perr"
	"github.com/chazu/selvage/pkg/piece"
	"github.com/chazu/selvage/pkg/snapshot"
	"github.com/chazu/selvage/pkg/tessellate"
	"github.com/chazu/selvage/pkg/workpool"
)

//go:embed frontend
var frontend embed.FS

// Assets returns the static frontend served by the Wails asset server.
func Assets() fs.FS {
	sub, err := fs.Sub(frontend, "frontend")
	if err != nil {
		panic(err)
	}
	return sub
}

// colorPalette assigns distinct colors to pieces.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

var errNotStarted = errors.New("desktop app not started")

// App is the Wails backend. Every bound method is marshalled onto the app's
// loop goroutine, which owns the open pattern.
type App struct {
	ctx      context.Context
	stop     context.CancelFunc
	done     chan struct{}
	cfg      config.Config
	log      *slog.Logger
	kernel   kernel.Kernel
	loop     *loop.Loop
	pool     *workpool.Pool
	notifier notify.Notifier
	metrics  *metrics.Metrics
	snaps    snapshot.Snapshotter

	pattern *pattern.Pattern
}

// Option configures an App.
type Option func(*App)

// WithNotifier replaces the Wails event emitter installed at startup.
func WithNotifier(n notify.Notifier) Option { return func(a *App) { a.notifier = n } }

func WithLogger(l *slog.Logger) Option { return func(a *App) { a.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(a *App) { a.metrics = m } }

func WithSnapshots(s snapshot.Snapshotter) Option { return func(a *App) { a.snaps = s } }

// NewApp creates an App for an interactive session.
func NewApp(cfg config.Config, opts ...Option) *App {
	cfg.Interactive = true
	a := &App{
		cfg:    cfg,
		log:    slog.Default(),
		kernel: sdfx.New(),
		loop:   loop.New(),
	}
	for _, o := range opts {
		o(a)
	}
	size := cfg.Workers
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	a.pool = workpool.New(size)
	return a
}

// Startup is called by Wails on app startup. It starts the loop goroutine.
func (a *App) Startup(ctx context.Context) {
	if a.notifier == nil {
		a.notifier = notify.NewWailsEmitter(ctx)
	}
	runCtx, stop := context.WithCancel(ctx)
	a.ctx, a.stop = runCtx, stop
	a.done = make(chan struct{})
	go func() {
		defer close(a.done)
		_ = a.loop.Run(runCtx)
	}()
}

// Shutdown is called by Wails when the window closes.
func (a *App) Shutdown(context.Context) {
	if a.ctx == nil {
		return
	}
	_ = a.call(func() {
		if a.pattern != nil {
			a.pattern.Close()
		}
	})
	a.stop()
	<-a.done
	a.loop.Close()
}

func (a *App) call(fn func()) error {
	if a.ctx == nil {
		return errNotStarted
	}
	return a.loop.Call(a.ctx, fn)
}

// ErrorData is a JSON-serializable parse error for the frontend.
type ErrorData struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Summary string   `json:"summary,omitempty"`
	Tag     string   `json:"tag,omitempty"`
	ID      ident.ID `json:"id,omitempty"`
}

// Summary describes the open pattern.
type Summary struct {
	Path          string     `json:"path"`
	Blocks        []string   `json:"blocks"`
	ActiveBlock   string     `json:"activeBlock"`
	Tools         int        `json:"tools"`
	History       int        `json:"history"`
	Vertices      int        `json:"vertices"`
	Edges         int        `json:"edges"`
	Pieces        int        `json:"pieces"`
	Collected     []ident.ID `json:"collected"`
	Editable      bool       `json:"editable"`
	GeometryDirty bool       `json:"geometryDirty"`
	Refresh       string     `json:"refresh"`
	DrawMode      string     `json:"drawMode"`
}

// Result is returned by every call that parses.
type Result struct {
	Summary Summary     `json:"summary"`
	Errors  []ErrorData `json:"errors"`
}

// OutlineData is one piece outline for the frontend canvas.
type OutlineData struct {
	ID     ident.ID      `json:"id"`
	Name   string        `json:"name"`
	Points []kernel.Vec2 `json:"points"`
	Bounds kernel.Box    `json:"bounds"`
	Area   float64       `json:"area"`
	Color  string        `json:"color"`
}

// OutlinesResult is the full result of Outlines.
type OutlinesResult struct {
	Outlines []OutlineData `json:"outlines"`
	Errors   []ErrorData   `json:"errors"`
}

// Open loads path and runs a full parse.
func (a *App) Open(path string) Result {
	d, err := doc.Load(path)
	if err != nil {
		a.log.Warn("open failed", "path", path, "error", err)
		return Result{Errors: []ErrorData{toErrorData(err)}}
	}
	var res Result
	err = a.call(func() {
		if a.pattern != nil {
			a.pattern.Close()
			a.pattern = nil
		}
		p, err := pattern.New(d, pattern.Options{
			Config:    a.cfg,
			Kernel:    a.kernel,
			Pool:      a.pool,
			Loop:      a.loop,
			Notifier:  a.notifier,
			Snapshots: a.snaps,
			Metrics:   a.metrics,
			Logger:    a.log,
		})
		if err != nil {
			res = Result{Errors: []ErrorData{toErrorData(err)}}
			return
		}
		a.pattern = p
		res = a.result(p.FullParseTree(a.ctx))
	})
	if err != nil {
		return Result{Errors: []ErrorData{toErrorData(err)}}
	}
	return res
}

// Reparse re-parses the open pattern in the named mode: full, lite,
// full_lite or lite_piece_partial.
func (a *App) Reparse(mode string) Result {
	m, ok := pattern.ParseModeFromString(mode)
	if !ok {
		return Result{Errors: []ErrorData{{Kind: perr.KindGeneric.String(), Message: "unknown parse mode " + mode}}}
	}
	var res Result
	err := a.withPattern(func(p *pattern.Pattern) {
		if m == pattern.FullParse {
			res = a.result(p.FullParseTree(a.ctx))
			return
		}
		res = a.result(p.LiteParseTree(a.ctx, m))
	})
	if err != nil {
		return Result{Errors: []ErrorData{toErrorData(err)}}
	}
	return res
}

// SetDrawMode records the view the user switched to. Entering the modeling
// view refreshes geometry left dirty while drawing.
func (a *App) SetDrawMode(mode string) Summary {
	var s Summary
	_ = a.withPattern(func(p *pattern.Pattern) {
		if mode == pattern.DrawModeling.String() {
			p.SetDrawMode(pattern.DrawModeling)
			p.RefreshDirtyGeometry()
		} else {
			p.SetDrawMode(pattern.DrawCalculation)
		}
		s = a.summary()
	})
	return s
}

// RefreshGeometry restarts the refresh job over every piece.
func (a *App) RefreshGeometry() Summary {
	var s Summary
	_ = a.withPattern(func(p *pattern.Pattern) {
		p.RefreshDirty(p.Data().PieceIDs())
		s = a.summary()
	})
	return s
}

// Summary describes the open pattern.
func (a *App) Summary() Summary {
	var s Summary
	_ = a.call(func() { s = a.summary() })
	return s
}

// Expressions lists every formula in the open document.
func (a *App) Expressions() []pattern.Expression {
	out := []pattern.Expression{}
	_ = a.withPattern(func(p *pattern.Pattern) {
		exprs, err := p.ListExpressions(a.ctx)
		if err != nil {
			a.log.Warn("listing expressions failed", "error", err)
			return
		}
		out = append(out, exprs...)
	})
	return out
}

// Outlines tessellates every registered piece.
func (a *App) Outlines() OutlinesResult {
	result := OutlinesResult{Outlines: []OutlineData{}, Errors: []ErrorData{}}
	err := a.withPattern(func(p *pattern.Pattern) {
		var recs []piece.Record
		for _, pt := range p.Pieces() {
			recs = append(recs, pt.Record)
		}
		outs, err := tessellate.Tessellate(a.kernel, p.Data(), recs)
		if err != nil {
			a.log.Warn("tessellation failed", "error", err)
			result.Errors = append(result.Errors, toErrorData(err))
			return
		}
		for i, o := range outs {
			result.Outlines = append(result.Outlines, OutlineData{
				ID:     o.ID,
				Name:   o.Name,
				Points: o.Contour.Points,
				Bounds: o.Bounds,
				Area:   o.Area,
				Color:  colorPalette[i%len(colorPalette)],
			})
		}
	})
	if err != nil {
		result.Errors = append(result.Errors, toErrorData(err))
	}
	return result
}

// Save writes the open document back to its file.
func (a *App) Save() []ErrorData {
	out := []ErrorData{}
	err := a.withPattern(func(p *pattern.Pattern) {
		d := p.Document()
		if err := d.Save(d.Path()); err != nil {
			out = append(out, toErrorData(err))
		}
	})
	if err != nil {
		out = append(out, toErrorData(err))
	}
	return out
}

var errNoPattern = errors.New("no pattern is open")

func (a *App) withPattern(fn func(*pattern.Pattern)) error {
	var missing bool
	err := a.call(func() {
		if a.pattern == nil {
			missing = true
			return
		}
		fn(a.pattern)
	})
	if err != nil {
		return err
	}
	if missing {
		return errNoPattern
	}
	return nil
}

// result runs on the loop.
func (a *App) result(err error) Result {
	res := Result{Summary: a.summary(), Errors: []ErrorData{}}
	if err != nil {
		res.Errors = append(res.Errors, toErrorData(err))
	}
	return res
}

// summary runs on the loop.
func (a *App) summary() Summary {
	p := a.pattern
	if p == nil {
		return Summary{Blocks: []string{}, Collected: []ident.ID{}}
	}
	return Summary{
		Path:          p.Document().Path(),
		Blocks:        append([]string{}, p.Blocks().Names()...),
		ActiveBlock:   p.Blocks().Active(),
		Tools:         p.Registry().Len(),
		History:       p.History().Len(),
		Vertices:      p.Graph().VertexCount(),
		Edges:         p.Graph().EdgeCount(),
		Pieces:        len(p.Data().PieceIDs()),
		Collected:     append([]ident.ID{}, p.Collected()...),
		Editable:      p.Editable(),
		GeometryDirty: p.GeometryDirty(),
		Refresh:       p.RefreshState().String(),
		DrawMode:      p.DrawMode().String(),
	}
}

func toErrorData(err error) ErrorData {
	var pe *perr.Error
	if errors.As(err, &pe) {
		return ErrorData{Kind: pe.Kind.String(), Message: pe.Error(), Summary: pe.Summary(), Tag: pe.Tag, ID: pe.ID}
	}
	return ErrorData{Kind: perr.KindGeneric.String(), Message: err.Error()}
}
