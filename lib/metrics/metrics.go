// Package metrics provides Prometheus metrics for consultation submissions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSubmitted        = "submitted"
	OutcomeValidationFailed = "validation_failed"
	OutcomeRejected         = "rejected"
	OutcomeInProgress       = "in_progress"
	OutcomeFailed           = "failed"
)

// Metrics holds all application metrics
type Metrics struct {
	Submissions         *prometheus.CounterVec
	SubmissionDuration  prometheus.Histogram
	BundleEntries       prometheus.Histogram
	Notifications       *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// New creates all metrics and registers them with the given registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consultation_submissions_total",
			Help: "Total consultation submissions by outcome",
		}, []string{"outcome"}),
		SubmissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "consultation_submission_duration_seconds",
			Help:    "Duration of posting the consultation bundle",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		BundleEntries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "consultation_bundle_entries",
			Help:    "Number of entries in submitted consultation bundles",
			Buckets: prometheus.LinearBuckets(1, 5, 10),
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consultation_notifications_total",
			Help: "Total consultation saved notifications by result",
		}, []string{"result"}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
		gatherer: registry,
	}
	registry.MustRegister(
		m.Submissions,
		m.SubmissionDuration,
		m.BundleEntries,
		m.Notifications,
		m.CircuitBreakerState,
	)
	return m
}

// NewUnregistered returns metrics on a private registry, for tests and offline tooling.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler exposes the registered metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RegisterHandlers registers GET /metrics on the given mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("GET /metrics", m.Handler())
}
