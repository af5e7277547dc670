// Package refresh runs piece geometry refresh jobs. At most one job runs at
// a time: starting a job cancels the current one and waits for it to stop.
// Each piece is refreshed by a unit posted to the owning loop, and every job
// ends with a finalization posted to the same loop, cancelled or not.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/metrics"
	"github.com/chazu/selvage/pkg/perr"
)

// State is the lifecycle state of a job, or of the runner as a whole.
type State int32

const (
	Idle State = iota
	Running
	Cancelled
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Dispatcher runs functions on the goroutine that owns the scene.
type Dispatcher interface {
	Post(fn func())
}

// UnitFunc refreshes one piece. It runs on the owning goroutine. A BadID
// error means the piece is gone and is treated as a skip.
type UnitFunc func(ctx context.Context, id ident.ID) error

// Result is handed to the finalizer.
type Result struct {
	Job   *Job
	State State
}

// Job is one refresh run.
type Job struct {
	id     uuid.UUID
	ids    []ident.ID
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	state  atomic.Int32

	mu        sync.Mutex
	refreshed []ident.ID
}

// ID returns the job's unique id.
func (j *Job) ID() uuid.UUID { return j.id }

// IDs returns the pieces the job was started for.
func (j *Job) IDs() []ident.ID { return append([]ident.ID(nil), j.ids...) }

func (j *Job) State() State { return State(j.state.Load()) }

// Done is closed when the job's worker has stopped. The finalizer may still
// be queued on the loop.
func (j *Job) Done() <-chan struct{} { return j.done }

// Refreshed returns the pieces whose unit ran successfully, in order.
func (j *Job) Refreshed() []ident.ID {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]ident.ID(nil), j.refreshed...)
}

func (j *Job) markRefreshed(id ident.ID) {
	j.mu.Lock()
	j.refreshed = append(j.refreshed, id)
	j.mu.Unlock()
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithMetrics sets the runner's collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// Runner owns the single in-flight job.
type Runner struct {
	disp     Dispatcher
	unit     UnitFunc
	finalize func(Result)
	log      *slog.Logger
	metrics  *metrics.Metrics

	startMu sync.Mutex
	mu      sync.Mutex
	current *Job
}

// NewRunner returns an idle runner. finalize may be nil.
func NewRunner(d Dispatcher, unit UnitFunc, finalize func(Result), opts ...Option) *Runner {
	r := &Runner{
		disp:     d,
		unit:     unit,
		finalize: finalize,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Start cancels the running job, waits for its worker to stop and starts a
// new job over ids. It must not be called from inside a unit.
func (r *Runner) Start(ctx context.Context, ids []ident.ID) *Job {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	if prev := r.Current(); prev != nil {
		prev.cancel()
		<-prev.done
	}

	jctx, cancel := context.WithCancel(ctx)
	job := &Job{
		id:     uuid.New(),
		ids:    append([]ident.ID(nil), ids...),
		ctx:    jctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	job.state.Store(int32(Running))

	r.mu.Lock()
	r.current = job
	r.mu.Unlock()

	r.log.Debug("refresh job started", "job_id", job.id.String(), "pieces", len(ids))
	go r.run(job)
	return job
}

// Current returns the most recently started job, or nil.
func (r *Runner) Current() *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// State reports Running while a job's worker is active and Idle otherwise.
func (r *Runner) State() State {
	j := r.Current()
	if j == nil || j.State() != Running {
		return Idle
	}
	return Running
}

// Wait blocks until the current job's worker has stopped.
func (r *Runner) Wait() {
	if j := r.Current(); j != nil {
		<-j.done
	}
}

// Cancel stops the current job without starting another.
func (r *Runner) Cancel() {
	if j := r.Current(); j != nil {
		j.cancel()
		<-j.done
	}
}

func (r *Runner) run(job *Job) {
	defer close(job.done)
	defer job.cancel()

	_, span := r.metrics.Start(job.ctx, "refresh.Job",
		attribute.String("job_id", job.id.String()),
		attribute.Int("pieces", len(job.ids)))
	defer span.End()

	for _, id := range job.ids {
		if job.ctx.Err() != nil {
			break
		}
		ack := make(chan struct{})
		r.disp.Post(func() {
			defer close(ack)
			// Units queued before a cancellation must not touch the scene.
			if job.ctx.Err() != nil {
				return
			}
			r.runUnit(job, id)
		})
		select {
		case <-ack:
		case <-job.ctx.Done():
		}
	}

	state := Completed
	if job.ctx.Err() != nil {
		state = Cancelled
	}
	job.state.Store(int32(state))
	span.SetAttributes(attribute.String("state", state.String()))
	r.metrics.RefreshFinished(state.String(), len(job.Refreshed()))
	r.log.Debug("refresh job finished", "job_id", job.id.String(), "state", state.String())

	r.disp.Post(func() {
		if r.finalize != nil {
			r.finalize(Result{Job: job, State: state})
		}
	})
}

func (r *Runner) runUnit(job *Job, id ident.ID) {
	err := r.unit(job.ctx, id)
	switch {
	case err == nil:
		job.markRefreshed(id)
	case perr.IsKind(err, perr.KindBadID):
		r.log.Debug("refresh skipped missing piece", "job_id", job.id.String(), "id", id.String())
	default:
		r.log.Warn("piece refresh failed", "job_id", job.id.String(), "id", id.String(), "error", err)
	}
}
