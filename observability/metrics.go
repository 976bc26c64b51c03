package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "geocoding"

// Metrics holds the Prometheus collectors for geocoding calls.
type Metrics struct {
	Requests       *prometheus.CounterVec   // labels: provider, method={forward,reverse}, outcome={success,empty,error}
	Errors         *prometheus.CounterVec   // labels: provider, kind
	Retries        *prometheus.CounterVec   // labels: provider, method
	Duration       *prometheus.HistogramVec // labels: provider, method
	RemainingCalls *prometheus.GaugeVec     // labels: provider
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.Requests, m.Errors, m.Retries, m.Duration, m.RemainingCalls)
	return m
}

// NewMetricsForTesting returns unregistered collectors, so tests can build
// as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Geocoding calls by provider, method and outcome.",
		}, []string{"provider", "method", "outcome"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failed geocoding calls by provider and error kind.",
		}, []string{"provider", "kind"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retried geocoding attempts.",
		}, []string{"provider", "method"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Geocoding call duration in seconds, retries included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider", "method"}),
		RemainingCalls: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remaining_calls",
			Help:      "Remaining daily quota reported by the provider.",
		}, []string{"provider"}),
	}
}
