package config

import "time"

// Default values for configuration fields.
const (
	// Scheduler defaults
	DefaultMaxRetries            = 3
	DefaultRetryDelay            = 1 * time.Second
	DefaultHighPriorityLatencyMS = 5000
	DefaultCatalogTTL            = 600 * time.Second

	// UnknownLatencyMS is the latency prior for providers absent from the
	// default latency table.
	UnknownLatencyMS = 3000

	// Provider defaults
	DefaultProviderTimeout = 60 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsNamespace = "arbiter"
	DefaultMetricsPath      = "/metrics"

	// Usage defaults
	DefaultUsageSQLitePath    = "data/usage.db"
	DefaultUsageRetentionDays = 90
	DefaultUsageRetentionCron = "0 3 * * *"
)

// DefaultLatenciesMS returns the built-in static latency priors, in
// milliseconds, for well-known provider types.
func DefaultLatenciesMS() map[string]int {
	return map[string]int{
		"openai":    2000,
		"anthropic": 2500,
		"google":    2000,
		"ollama":    5000,
	}
}

// DefaultLatencyBuckets returns the default histogram buckets, in seconds,
// for provider call latency.
func DefaultLatencyBuckets() []float64 {
	return []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
}

// ApplyDefaults fills in zero-valued fields with their documented defaults.
// It never overrides a value the user set explicitly, with the caveat that
// a deliberately zero value is indistinguishable from an unset one for
// scalar fields.
func (c *Config) ApplyDefaults() {
	s := &c.Scheduler
	if s.MaxRetries == 0 {
		s.MaxRetries = DefaultMaxRetries
	}
	if s.RetryDelay == 0 {
		s.RetryDelay = DefaultRetryDelay
	}
	if s.HighPriorityLatencyMS == 0 {
		s.HighPriorityLatencyMS = DefaultHighPriorityLatencyMS
	}
	if s.CatalogTTL == 0 {
		s.CatalogTTL = DefaultCatalogTTL
	}
	if s.DefaultLatenciesMS == nil {
		s.DefaultLatenciesMS = DefaultLatenciesMS()
	}
	if s.PrefetchCatalogs == nil {
		prefetch := true
		s.PrefetchCatalogs = &prefetch
	}

	for name, pc := range c.Providers {
		if pc.Type == "" {
			pc.Type = name
		}
		if pc.Timeout == 0 {
			pc.Timeout = DefaultProviderTimeout
		}
		c.Providers[name] = pc
	}

	t := &c.Telemetry
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.LatencyBuckets == nil {
		t.Metrics.LatencyBuckets = DefaultLatencyBuckets()
	}

	u := &c.Usage
	if u.SQLitePath == "" {
		u.SQLitePath = DefaultUsageSQLitePath
	}
	if u.RetentionDays == 0 {
		u.RetentionDays = DefaultUsageRetentionDays
	}
	if u.RetentionSchedule == "" {
		u.RetentionSchedule = DefaultUsageRetentionCron
	}
}
