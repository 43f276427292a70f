package routing

import (
	"context"

	"storymaster/arbiter/pkg/providers"
)

// ScheduleResult is the resolved assignment for one attempt: the adapter to
// call, the provider identity and model id it was resolved to, and the cost
// and latency estimates used for logging and scoring. It is produced fresh
// per call and never cached.
type ScheduleResult struct {
	// Adapter is the live adapter instance to execute against.
	Adapter providers.Provider

	// Provider is the resolved provider identity.
	Provider string

	// Model is the resolved model id.
	Model string

	// EstimatedCost is the pre-flight cost estimate in dollars.
	EstimatedCost float64

	// EstimatedLatencyMS is the pre-flight latency estimate in milliseconds.
	EstimatedLatencyMS int
}

// Candidate is a scored (provider, model) pairing considered during
// discovery-mode scheduling.
type Candidate struct {
	// Provider is the candidate provider identity.
	Provider string

	// Model is the candidate model id.
	Model string

	// EstimatedCost is the pre-flight cost estimate in dollars.
	EstimatedCost float64

	// EstimatedLatencyMS is the pre-flight latency estimate in milliseconds.
	EstimatedLatencyMS int

	// Score is the candidate's ranking score in [0, 100].
	Score float64
}

// ChatUsage is the terminal outcome of one logical chat request, offered to
// an optional UsageRecorder for persistence.
type ChatUsage struct {
	// RequestID is the correlation id assigned to the request.
	RequestID string

	// Provider and Model identify the assignment that terminated the request.
	Provider string
	Model    string

	// PromptTokens and CompletionTokens are taken from the provider's usage
	// report; zero when the provider did not report usage.
	PromptTokens     int
	CompletionTokens int

	// Cost is the computed cost in dollars (0 without a cost capability).
	Cost float64

	// LatencyMS is the wall-clock latency of the terminal attempt path.
	LatencyMS int64

	// Outcome is "success", "error", or "stream_complete".
	Outcome string
}

// UsageRecorder persists terminal chat outcomes. Recording is best-effort:
// the manager logs and ignores recorder failures.
type UsageRecorder interface {
	RecordChat(ctx context.Context, rec ChatUsage) error
}

// boundProvider is one initialized provider with its optional capabilities
// resolved once at registration time. A nil slot means the adapter does not
// implement that capability.
type boundProvider struct {
	name    string
	adapter providers.Provider
	config  providers.Config

	listModels func(ctx context.Context) ([]providers.ModelInfo, error)
	cost       func(model string, usage providers.TokenUsage) float64
	validate   func(cfg providers.Config) providers.ValidationResult
}

// bindProvider resolves the adapter's optional capabilities into function
// slots. This is the only place capability detection happens.
func bindProvider(name string, adapter providers.Provider, cfg providers.Config) *boundProvider {
	bound := &boundProvider{
		name:    name,
		adapter: adapter,
		config:  cfg,
	}
	if lister, ok := adapter.(providers.ModelLister); ok {
		bound.listModels = lister.GetModels
	}
	if calc, ok := adapter.(providers.CostCalculator); ok {
		bound.cost = calc.Cost
	}
	if validator, ok := adapter.(providers.ConfigValidator); ok {
		bound.validate = validator.ValidateConfig
	}
	return bound
}
