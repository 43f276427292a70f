// Package config defines the configuration surface for the arbiter routing
// core and its supporting services.
//
// Configuration is loaded from a YAML file, overlaid with ARBITER_* environment
// variables, then run through ApplyDefaults and Validate. Load performs the
// whole pipeline; callers that build configs in code can run the two stages
// directly. Watch re-runs the pipeline whenever the file changes on disk.
package config
