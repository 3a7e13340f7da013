package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "seoulhigh"

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing, so components can run without metrics wired.
type Metrics struct {
	registry *prometheus.Registry

	pollSuccess      *prometheus.CounterVec
	pollErrors       *prometheus.CounterVec
	snapshotsWritten prometheus.Counter
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pollSuccess: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_success_total",
				Help:      "Number of successful ingestion polls",
			},
			[]string{"job"},
		),
		pollErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_errors_total",
				Help:      "Number of failed ingestion polls",
			},
			[]string{"job"},
		),
		snapshotsWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshots_written_total",
				Help:      "Number of order-book snapshots written to the store",
			},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
	}

	m.registry.MustRegister(
		m.pollSuccess,
		m.pollErrors,
		m.snapshotsWritten,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// PollSuccess counts a successful poll of job.
func (m *Metrics) PollSuccess(job string) {
	if m != nil {
		m.pollSuccess.WithLabelValues(job).Inc()
	}
}

// PollError counts a failed poll of job.
func (m *Metrics) PollError(job string) {
	if m != nil {
		m.pollErrors.WithLabelValues(job).Inc()
	}
}

// SnapshotsWritten adds n written snapshot rows.
func (m *Metrics) SnapshotsWritten(n int) {
	if m != nil && n > 0 {
		m.snapshotsWritten.Add(float64(n))
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if m != nil {
		m.httpDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
