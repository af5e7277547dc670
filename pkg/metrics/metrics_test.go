package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg, nil)
	require.NoError(t, err)

	m.ObserveParse("full", 10*time.Millisecond)
	m.ParseFailed("expression")
	m.ParseFailed("expression")
	m.GCRan(3)
	m.GCRan(0)
	m.RefreshFinished("completed", 4)
	m.RefreshFinished("cancelled", 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.parseFailures.WithLabelValues("expression")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.gcRuns))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.gcCollected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshJobs.WithLabelValues("cancelled")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.refreshPieces))
	assert.Equal(t, 1, testutil.CollectAndCount(m.parseDuration))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, nil)
	require.NoError(t, err)
	_, err = New(reg, nil)
	assert.Error(t, err)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveParse("lite", time.Second)
	m.ParseFailed("object")
	m.GCRan(1)
	m.RefreshFinished("completed", 1)
	_, span := m.Start(context.Background(), "noop")
	span.End()
}

func TestStartRecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	m, err := New(prometheus.NewRegistry(), tp)
	require.NoError(t, err)

	_, span := m.Start(context.Background(), "pattern.Parse", attribute.String("mode", "full"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "pattern.Parse", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("mode", "full"))
}
