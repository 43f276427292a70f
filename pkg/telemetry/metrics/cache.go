package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"storymaster/arbiter/pkg/config"
)

// CacheMetrics tracks cache effectiveness for the routing layer's caches.
//
// Metrics:
//   - arbiter_cache_hits_total: Cache hit count per cache
//   - arbiter_cache_misses_total: Cache miss count per cache
//   - arbiter_cache_evictions_total: Entries evicted per cache
//   - arbiter_cache_size: Current entry count per cache
type CacheMetrics struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	evictions *prometheus.CounterVec
	size      *prometheus.GaugeVec
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),

		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),

		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_evictions_total",
				Help:      "Total number of cache entries evicted",
			},
			[]string{"cache"},
		),

		size: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_size",
				Help:      "Current number of cache entries",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		cm.hits,
		cm.misses,
		cm.evictions,
		cm.size,
	)

	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit(cache string) {
	cm.hits.WithLabelValues(cache).Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss(cache string) {
	cm.misses.WithLabelValues(cache).Inc()
}

// RecordEvictions records n evicted entries.
func (cm *CacheMetrics) RecordEvictions(cache string, n int) {
	cm.evictions.WithLabelValues(cache).Add(float64(n))
}

// SetSize updates the current entry count.
func (cm *CacheMetrics) SetSize(cache string, n int) {
	cm.size.WithLabelValues(cache).Set(float64(n))
}
