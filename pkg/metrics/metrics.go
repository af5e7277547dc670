// Package metrics exposes prometheus collectors and an otel tracer for the
// parse, collection and refresh cycles. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span.
const TracerName = "github.com/chazu/selvage"

const namespace = "selvage"

// Metrics groups the engine's collectors.
type Metrics struct {
	parseDuration *prometheus.HistogramVec
	parseFailures *prometheus.CounterVec
	gcRuns        prometheus.Counter
	gcCollected   prometheus.Counter
	refreshJobs   *prometheus.CounterVec
	refreshPieces prometheus.Counter
	tracer        trace.Tracer
}

// New registers the collectors with reg. A nil tp uses the global tracer
// provider.
func New(reg prometheus.Registerer, tp trace.TracerProvider) (*Metrics, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	m := &Metrics{
		parseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Duration of document parses by mode.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"mode"}),
		parseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Failed parses by error kind.",
		}, []string{"kind"}),
		gcRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gc_runs_total",
			Help:      "Garbage collection runs.",
		}),
		gcCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gc_collected_total",
			Help:      "Nodes removed by garbage collection.",
		}),
		refreshJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_jobs_total",
			Help:      "Geometry refresh jobs by final state.",
		}, []string{"state"}),
		refreshPieces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_pieces_total",
			Help:      "Pieces refreshed by geometry jobs.",
		}),
		tracer: tp.Tracer(TracerName),
	}
	for _, c := range []prometheus.Collector{
		m.parseDuration, m.parseFailures, m.gcRuns, m.gcCollected, m.refreshJobs, m.refreshPieces,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Start opens a span. On a nil receiver the global tracer is used.
func (m *Metrics) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	if m != nil {
		tracer = m.tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (m *Metrics) ObserveParse(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.parseDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) ParseFailed(kind string) {
	if m == nil {
		return
	}
	m.parseFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) GCRan(collected int) {
	if m == nil {
		return
	}
	m.gcRuns.Inc()
	m.gcCollected.Add(float64(collected))
}

func (m *Metrics) RefreshFinished(state string, pieces int) {
	if m == nil {
		return
	}
	m.refreshJobs.WithLabelValues(state).Inc()
	m.refreshPieces.Add(float64(pieces))
}
