package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use LoadWithEnvOverrides
// for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	expandSecrets(&cfg)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// ARBITER_SECTION_FIELD (e.g., ARBITER_SCHEDULER_MAX_RETRIES) and always
// take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// expandSecrets expands ${ENV_VAR} references in provider API keys so
// secrets can stay out of the config file.
func expandSecrets(cfg *Config) {
	for name, pc := range cfg.Providers {
		if strings.HasPrefix(pc.APIKey, "${") && strings.HasSuffix(pc.APIKey, "}") {
			pc.APIKey = os.Getenv(strings.TrimSuffix(strings.TrimPrefix(pc.APIKey, "${"), "}"))
			cfg.Providers[name] = pc
		}
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format ARBITER_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Scheduler overrides
	if val := os.Getenv("ARBITER_SCHEDULER_DEFAULT_PROVIDER"); val != "" {
		cfg.Scheduler.DefaultProvider = val
	}
	if val := os.Getenv("ARBITER_SCHEDULER_FALLBACK_PROVIDERS"); val != "" {
		cfg.Scheduler.FallbackProviders = splitList(val)
	}
	if val := os.Getenv("ARBITER_SCHEDULER_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Scheduler.MaxRetries = i
		}
	}
	if val := os.Getenv("ARBITER_SCHEDULER_RETRY_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Scheduler.RetryDelay = d
		}
	}
	if val := os.Getenv("ARBITER_SCHEDULER_COST_CEILING"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Scheduler.CostCeiling = f
		}
	}
	if val := os.Getenv("ARBITER_SCHEDULER_HIGH_PRIORITY_LATENCY_MS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Scheduler.HighPriorityLatencyMS = i
		}
	}
	if val := os.Getenv("ARBITER_SCHEDULER_CATALOG_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Scheduler.CatalogTTL = d
		}
	}

	// Provider overrides, for every provider named in the file
	for name := range cfg.Providers {
		applyProviderEnvOverrides(cfg, name)
	}

	// Telemetry overrides
	if val := os.Getenv("ARBITER_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("ARBITER_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("ARBITER_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("ARBITER_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}

	// Usage overrides
	if val := os.Getenv("ARBITER_USAGE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Usage.Enabled = b
		}
	}
	if val := os.Getenv("ARBITER_USAGE_SQLITE_PATH"); val != "" {
		cfg.Usage.SQLitePath = val
	}
	if val := os.Getenv("ARBITER_USAGE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Usage.RetentionDays = i
		}
	}
}

// applyProviderEnvOverrides applies overrides for one provider. Provider
// variables follow the format ARBITER_PROVIDERS_<NAME>_<FIELD> where NAME is
// the uppercase provider name.
func applyProviderEnvOverrides(cfg *Config, providerName string) {
	provider := cfg.Providers[providerName]
	prefix := fmt.Sprintf("ARBITER_PROVIDERS_%s_", strings.ToUpper(providerName))

	modified := false

	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		provider.BaseURL = val
		modified = true
	}
	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		provider.APIKey = val
		modified = true
	}
	if val := os.Getenv(prefix + "MODEL"); val != "" {
		provider.Model = val
		modified = true
	}
	if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			provider.Timeout = d
			modified = true
		}
	}

	if modified {
		cfg.Providers[providerName] = provider
	}
}

// splitList splits a comma-separated list, trimming whitespace and dropping
// empty items.
func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
