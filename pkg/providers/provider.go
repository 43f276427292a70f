package providers

import "context"

// Provider is the core capability interface every adapter must implement.
//
// All methods accept a context.Context for cancellation and timeout control.
// Adapters are expected to enforce their own per-call timeout; the routing
// layer bounds total latency through its retry and failover limits rather
// than a second timer.
type Provider interface {
	// Name returns the provider identity this adapter serves.
	Name() string

	// Chat executes one chat completion and returns the normalized response.
	Chat(ctx context.Context, req *Request) (*Response, error)

	// ChatStream executes a streaming chat completion. It returns a channel
	// that yields incremental chunks as they arrive and is closed when the
	// stream ends. A mid-stream failure is reported as a final chunk with
	// Err set. A setup failure is returned directly.
	ChatStream(ctx context.Context, req *Request) (<-chan ChatChunk, error)
}

// ModelLister is the optional catalog capability. Adapters without it are
// trusted to accept any caller-specified model.
type ModelLister interface {
	// GetModels returns the models the provider currently reports available.
	GetModels(ctx context.Context) ([]ModelInfo, error)
}

// CostCalculator is the optional pricing capability. Adapters without it
// report zero cost for every request.
type CostCalculator interface {
	// Cost returns the price in dollars for the given usage on a model.
	Cost(model string, usage TokenUsage) float64
}

// ConfigValidator is the optional configuration validation capability.
// Adapters without it have their configuration assumed valid.
type ConfigValidator interface {
	// ValidateConfig checks whether the configuration is usable.
	ValidateConfig(cfg Config) ValidationResult
}
