package routing

import "sync"

// ProviderMetrics holds the live counters for one provider. All fields are
// cumulative and monotone except AverageLatencyMS, which is derived as
// TotalLatencyMS / max(1, RequestCount) on every update.
type ProviderMetrics struct {
	// RequestCount is the number of terminal attempts recorded.
	RequestCount int64 `json:"request_count"`

	// SuccessCount is the number of successful terminal attempts.
	SuccessCount int64 `json:"success_count"`

	// ErrorCount is the number of failed terminal attempts.
	ErrorCount int64 `json:"error_count"`

	// TotalLatencyMS is the cumulative latency across attempts.
	TotalLatencyMS int64 `json:"total_latency_ms"`

	// AverageLatencyMS is the derived rolling average latency.
	AverageLatencyMS float64 `json:"average_latency_ms"`

	// TotalCost is the cumulative cost in dollars.
	TotalCost float64 `json:"total_cost"`
}

// MetricsRegistry tracks per-provider counters. Entries are created lazily
// on first use and live for the process. All updates are serialized through
// one lock so interleaved increments can never corrupt a counter.
type MetricsRegistry struct {
	mu         sync.Mutex
	byProvider map[string]*ProviderMetrics
}

// NewMetricsRegistry creates an empty metrics registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		byProvider: make(map[string]*ProviderMetrics),
	}
}

// Record folds one terminal attempt into the provider's counters.
func (r *MetricsRegistry) Record(provider string, latencyMS int64, cost float64, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byProvider[provider]
	if !ok {
		m = &ProviderMetrics{}
		r.byProvider[provider] = m
	}

	m.RequestCount++
	if failed {
		m.ErrorCount++
	} else {
		m.SuccessCount++
		m.TotalCost += cost
	}
	m.TotalLatencyMS += latencyMS
	m.AverageLatencyMS = float64(m.TotalLatencyMS) / float64(max64(1, m.RequestCount))
}

// Snapshot returns a copy of the provider's counters.
// The second return value is false if the provider has no recorded attempts.
func (r *MetricsRegistry) Snapshot(provider string) (ProviderMetrics, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byProvider[provider]
	if !ok {
		return ProviderMetrics{}, false
	}
	return *m, true
}

// All returns a copy of every provider's counters.
func (r *MetricsRegistry) All() map[string]ProviderMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]ProviderMetrics, len(r.byProvider))
	for name, m := range r.byProvider {
		out[name] = *m
	}
	return out
}

// AverageLatencyMS returns the provider's rolling average latency, or 0 if
// the provider has no recorded attempts.
func (r *MetricsRegistry) AverageLatencyMS(provider string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.byProvider[provider]; ok {
		return m.AverageLatencyMS
	}
	return 0
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
