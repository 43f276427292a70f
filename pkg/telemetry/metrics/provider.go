package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"storymaster/arbiter/pkg/config"
)

// ProviderMetrics tracks provider request volume, errors, latency, and cost.
//
// Metrics:
//   - arbiter_provider_requests_total: Total requests per provider/model
//   - arbiter_provider_errors_total: Provider error count by type
//   - arbiter_provider_latency_seconds: Provider call latency
//   - arbiter_provider_cost_dollars_total: Cumulative provider cost
type ProviderMetrics struct {
	// Total requests to provider
	requests *prometheus.CounterVec

	// Provider error counter
	errors *prometheus.CounterVec

	// Provider call latency histogram
	latency *prometheus.HistogramVec

	// Cumulative cost counter
	cost *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_requests_total",
				Help:      "Total number of requests to each provider",
			},
			[]string{"provider", "model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors by type",
			},
			[]string{"provider", "error_type"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_latency_seconds",
				Help:      "Provider call latency in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"provider", "model"},
		),

		cost: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_cost_dollars_total",
				Help:      "Cumulative provider cost in dollars",
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(
		pm.requests,
		pm.errors,
		pm.latency,
		pm.cost,
	)

	return pm
}

// RecordRequest records one request to a provider/model pair.
func (pm *ProviderMetrics) RecordRequest(provider, model string) {
	pm.requests.WithLabelValues(provider, model).Inc()
}

// RecordError records an error from a provider.
//
// Common error types: "transient", "model_unavailable", "configuration",
// "stream".
func (pm *ProviderMetrics) RecordError(provider, errorType string) {
	pm.errors.WithLabelValues(provider, errorType).Inc()
}

// RecordLatency records the latency of one provider call.
func (pm *ProviderMetrics) RecordLatency(provider, model string, latencySeconds float64) {
	pm.latency.WithLabelValues(provider, model).Observe(latencySeconds)
}

// RecordCost adds the cost of one completed call.
func (pm *ProviderMetrics) RecordCost(provider, model string, dollars float64) {
	if dollars > 0 {
		pm.cost.WithLabelValues(provider, model).Add(dollars)
	}
}
