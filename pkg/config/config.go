package config

import (
	"time"

	"storymaster/arbiter/pkg/providers"
)

// Config is the root configuration structure for arbiter.
type Config struct {
	// Scheduler contains the routing core's scheduling, retry, failover,
	// and scoring settings.
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Providers contains configuration for all LLM provider integrations.
	// Keys are provider names (e.g., "openai", "anthropic").
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Usage contains configuration for the usage ledger.
	Usage UsageConfig `yaml:"usage"`
}

// SchedulerConfig contains configuration for the routing core.
type SchedulerConfig struct {
	// DefaultProvider is the provider used when a request names none.
	// If this provider fails to initialize but another one succeeds, the
	// default is reassigned to an initialized provider with a warning.
	DefaultProvider string `yaml:"default_provider"`

	// FallbackProviders is the ordered list tried after retries are
	// exhausted on the scheduled provider. Each fallback gets exactly one
	// attempt.
	FallbackProviders []string `yaml:"fallback_providers"`

	// MaxRetries is the number of additional attempts after the first.
	// A scheduled call therefore runs at most MaxRetries+1 times.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// RetryDelay is the base backoff delay; attempt n sleeps
	// RetryDelay * 2^n before the next attempt.
	// Default: 1s
	RetryDelay time.Duration `yaml:"retry_delay"`

	// CostCeiling is the per-request cost budget in dollars used by the
	// scorer. Candidates over the ceiling take the full cost penalty.
	// Zero disables the ceiling.
	CostCeiling float64 `yaml:"cost_ceiling"`

	// HighPriorityLatencyMS is the latency threshold above which a
	// provider is not acceptable for high-priority requests.
	// Default: 5000
	HighPriorityLatencyMS int `yaml:"high_priority_latency_ms"`

	// CatalogTTL is the freshness window for cached model catalogs.
	// Default: 600s
	CatalogTTL time.Duration `yaml:"catalog_ttl"`

	// DefaultLatenciesMS maps provider names to static latency priors
	// used until a provider has completed at least one real attempt.
	// Providers absent from the map use UnknownLatencyMS.
	DefaultLatenciesMS map[string]int `yaml:"default_latencies_ms"`

	// PrefetchCatalogs controls best-effort catalog prefetch at startup.
	// Default: true
	PrefetchCatalogs *bool `yaml:"prefetch_catalogs"`
}

// ProviderConfig contains configuration for a single LLM provider.
type ProviderConfig struct {
	// Type selects the adapter implementation (e.g., "openai",
	// "anthropic", "ollama"). Defaults to the provider's map key.
	Type string `yaml:"type"`

	// BaseURL is the base URL for the provider's API endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key. Supports ${ENV_VAR} expansion.
	APIKey string `yaml:"api_key"`

	// Model is the provider's default model, used when a request pins
	// none.
	Model string `yaml:"model"`

	// Timeout is the per-call timeout enforced by the adapter.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// Extra holds adapter-specific settings the core does not interpret.
	Extra map[string]string `yaml:"extra"`
}

// Runtime converts the config entry into the runtime form handed to
// provider factories. The name is the provider's key in the Providers map.
func (pc ProviderConfig) Runtime(name string) providers.Config {
	typ := pc.Type
	if typ == "" {
		typ = name
	}
	return providers.Config{
		Name:    name,
		Type:    typ,
		BaseURL: pc.BaseURL,
		APIKey:  pc.APIKey,
		Model:   pc.Model,
		Timeout: pc.Timeout,
		Extra:   pc.Extra,
	}
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether Prometheus collectors are registered.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "arbiter"
	Namespace string `yaml:"namespace"`

	// Subsystem is the optional second metric name segment.
	Subsystem string `yaml:"subsystem"`

	// Path is the HTTP path for the exposition endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// LatencyBuckets are the histogram buckets, in seconds, for provider
	// call latency.
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// UsageConfig contains configuration for the usage ledger.
type UsageConfig struct {
	// Enabled controls whether completed calls are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// SQLitePath is the path to the ledger database file.
	// Default: "data/usage.db"
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays is how long usage rows are kept. Zero keeps rows
	// forever.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// RetentionSchedule is the cron expression for the retention sweep.
	// Default: "0 3 * * *"
	RetentionSchedule string `yaml:"retention_schedule"`
}
