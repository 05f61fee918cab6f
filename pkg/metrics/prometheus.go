package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements Recorder with Prometheus collectors.
type PrometheusMetrics struct {
	gatherer prometheus.Gatherer
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cases    *prometheus.CounterVec
	inFlight prometheus.Gauge
}

// NewPrometheusMetrics creates the collectors under namespace and
// registers them on a private registry.
func NewPrometheusMetrics(namespace string) (*PrometheusMetrics, error) {
	reg := prometheus.NewRegistry()
	return NewPrometheusMetricsWith(namespace, reg, reg)
}

// NewPrometheusMetricsWith registers on reg and serves from g.
func NewPrometheusMetricsWith(
	namespace string,
	reg prometheus.Registerer,
	g prometheus.Gatherer,
) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		gatherer: g,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Evaluation runs by status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock time of evaluation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"status"}),
		cases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cases_total",
			Help:      "Evaluated test cases by outcome.",
		}, []string{"outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Runs currently executing.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.runs, m.duration, m.cases, m.inFlight,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) RecordRun(status string, d time.Duration) {
	m.runs.WithLabelValues(status).Inc()
	m.duration.WithLabelValues(status).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordCase(passed, timedOut bool) {
	m.cases.WithLabelValues(outcome(passed, timedOut)).Inc()
}

func (m *PrometheusMetrics) IncInFlight() { m.inFlight.Inc() }
func (m *PrometheusMetrics) DecInFlight() { m.inFlight.Dec() }

// Handler serves the registered collectors in the exposition
// format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func outcome(passed, timedOut bool) string {
	switch {
	case passed:
		return "passed"
	case timedOut:
		return "timed_out"
	default:
		return "failed"
	}
}
