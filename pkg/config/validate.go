package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "scheduler.max_retries").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. All field errors are collected and returned together.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is
// valid.
func (c *Config) Validate() error {
	var errs []FieldError

	errs = append(errs, validateScheduler(&c.Scheduler, c.Providers)...)
	errs = append(errs, validateProviders(c.Providers)...)
	errs = append(errs, validateTelemetry(&c.Telemetry)...)
	errs = append(errs, validateUsage(&c.Usage)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateScheduler validates the routing core configuration.
func validateScheduler(cfg *SchedulerConfig, providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) > 0 && cfg.DefaultProvider == "" {
		errs = append(errs, FieldError{
			Field:   "scheduler.default_provider",
			Message: "default provider is required when providers are configured",
		})
	}
	if cfg.DefaultProvider != "" {
		if _, ok := providers[cfg.DefaultProvider]; !ok {
			errs = append(errs, FieldError{
				Field:   "scheduler.default_provider",
				Message: fmt.Sprintf("provider %q is not configured", cfg.DefaultProvider),
			})
		}
	}

	for i, name := range cfg.FallbackProviders {
		if _, ok := providers[name]; !ok {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("scheduler.fallback_providers[%d]", i),
				Message: fmt.Sprintf("provider %q is not configured", name),
			})
		}
	}

	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "scheduler.max_retries",
			Message: "max retries must not be negative",
		})
	}
	if cfg.RetryDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "scheduler.retry_delay",
			Message: "retry delay must not be negative",
		})
	}
	if cfg.CostCeiling < 0 {
		errs = append(errs, FieldError{
			Field:   "scheduler.cost_ceiling",
			Message: "cost ceiling must not be negative",
		})
	}
	if cfg.HighPriorityLatencyMS < 0 {
		errs = append(errs, FieldError{
			Field:   "scheduler.high_priority_latency_ms",
			Message: "latency threshold must not be negative",
		})
	}
	if cfg.CatalogTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "scheduler.catalog_ttl",
			Message: "catalog TTL must not be negative",
		})
	}

	return errs
}

// validateProviders validates provider configurations.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	for name, pc := range providers {
		if pc.BaseURL != "" {
			if _, err := url.Parse(pc.BaseURL); err != nil {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("providers.%s.base_url", name),
					Message: fmt.Sprintf("invalid URL: %v", err),
				})
			}
		}
		if pc.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("providers.%s.timeout", name),
				Message: "timeout must not be negative",
			})
		}
	}

	return errs
}

// validateTelemetry validates logging and metrics configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown log level %q", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "", "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown log format %q", cfg.Logging.Format),
		})
	}

	for i := 1; i < len(cfg.Metrics.LatencyBuckets); i++ {
		if cfg.Metrics.LatencyBuckets[i] <= cfg.Metrics.LatencyBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.latency_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	return errs
}

// validateUsage validates usage ledger configuration.
func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "usage.sqlite_path",
			Message: "sqlite path is required when the usage ledger is enabled",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "usage.retention_days",
			Message: "retention days must not be negative",
		})
	}

	return errs
}
