// Package observability holds the Prometheus metrics of organizer requests
// and engines.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "organizer"

// Metrics groups the request and engine metrics. A nil *Metrics is valid and
// records nothing, so components can take it as an optional dependency.
type Metrics struct {
	// RequestsStarted counts requests that reached Active, by kind.
	RequestsStarted *prometheus.CounterVec

	// RequestsFinished counts terminal transitions, by kind and state.
	RequestsFinished *prometheus.CounterVec

	// RequestDuration observes start-to-terminal time in seconds, by kind.
	RequestDuration *prometheus.HistogramVec

	// ResultsPublished counts items handed to requests, by kind.
	ResultsPublished *prometheus.CounterVec

	// JobsQueued is the number of requests waiting in engine queues.
	JobsQueued prometheus.Gauge

	// JobDuration observes engine execution time in seconds, by kind.
	JobDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them on reg.
// Use a fresh prometheus.NewRegistry() per process or test.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_started_total",
			Help:      "Total number of requests started by kind",
		}, []string{"kind"}),
		RequestsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_finished_total",
			Help:      "Total number of requests that reached a terminal state by kind and state",
		}, []string{"kind", "state"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of requests from start to terminal state in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"kind"}),
		ResultsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "results_published_total",
			Help:      "Total number of result items published to requests by kind",
		}, []string{"kind"}),
		JobsQueued: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "engine_jobs_queued",
			Help:      "Number of requests waiting for an engine",
		}),
		JobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "engine_job_duration_seconds",
			Help:      "Engine execution time per request in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"kind"}),
	}
}

// RecordRequestStarted increments RequestsStarted.
func (m *Metrics) RecordRequestStarted(kind string) {
	if m == nil {
		return
	}
	m.RequestsStarted.WithLabelValues(kind).Inc()
}

// RecordRequestFinished increments RequestsFinished and observes the duration.
func (m *Metrics) RecordRequestFinished(kind, state string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsFinished.WithLabelValues(kind, state).Inc()
	m.RequestDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordResults adds n to ResultsPublished.
func (m *Metrics) RecordResults(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ResultsPublished.WithLabelValues(kind).Add(float64(n))
}

// SetJobsQueued sets the engine queue depth.
func (m *Metrics) SetJobsQueued(n int) {
	if m == nil {
		return
	}
	m.JobsQueued.Set(float64(n))
}

// RecordJob observes one engine execution.
func (m *Metrics) RecordJob(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.JobDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	return prometheus.WriteToTextfile(path, g)
}
