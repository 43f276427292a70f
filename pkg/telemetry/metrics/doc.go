// Package metrics provides Prometheus collectors for the routing core.
//
// Collectors are grouped by concern: ProviderMetrics tracks request volume,
// errors, latency, and cost per provider/model; CacheMetrics tracks catalog
// cache hits, misses, evictions, and size. All collectors register against
// an explicit *prometheus.Registry so tests can use isolated registries.
//
// The collectors mirror the routing layer's internal counters; the internal
// MetricsRegistry stays authoritative for scheduling decisions (latency
// estimates) because reading back from Prometheus is not practical.
package metrics
