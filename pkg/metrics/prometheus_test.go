package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	var r Recorder = NoopMetrics{}
	r.RecordRun("passed", time.Second)
	r.RecordCase(true, false)
	r.IncInFlight()
	r.DecInFlight()
}

func TestPrometheusMetrics_RecordRun(t *testing.T) {
	m, err := NewPrometheusMetrics("test")
	require.NoError(t, err)

	m.RecordRun("passed", 10*time.Millisecond)
	m.RecordRun("passed", 20*time.Millisecond)
	m.RecordRun("compile_error", time.Millisecond)

	assert.Equal(t, 2.0,
		testutil.ToFloat64(m.runs.WithLabelValues("passed")))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.runs.WithLabelValues("compile_error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestPrometheusMetrics_RecordCase(t *testing.T) {
	m, err := NewPrometheusMetrics("test")
	require.NoError(t, err)

	m.RecordCase(true, false)
	m.RecordCase(false, false)
	m.RecordCase(false, true)
	m.RecordCase(false, true)

	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.cases.WithLabelValues("passed")))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.cases.WithLabelValues("failed")))
	assert.Equal(t, 2.0,
		testutil.ToFloat64(m.cases.WithLabelValues("timed_out")))
}

func TestPrometheusMetrics_InFlight(t *testing.T) {
	m, err := NewPrometheusMetrics("test")
	require.NoError(t, err)

	m.IncInFlight()
	m.IncInFlight()
	m.DecInFlight()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
}

func TestPrometheusMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMetricsWith("dup", reg, reg)
	require.NoError(t, err)

	_, err = NewPrometheusMetricsWith("dup", reg, reg)
	assert.Error(t, err)
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m, err := NewPrometheusMetrics("snippetcheck")
	require.NoError(t, err)
	m.RecordRun("failed", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body),
		`snippetcheck_runs_total{status="failed"} 1`))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "passed", outcome(true, false))
	assert.Equal(t, "failed", outcome(false, false))
	assert.Equal(t, "timed_out", outcome(false, true))
}
