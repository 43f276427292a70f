// Package routing provides scriptable provider fakes for routing core tests.
package routing

import (
	"context"
	"sync"

	"storymaster/arbiter/pkg/providers"
)

// MockProvider is a scriptable in-memory provider. It implements the full
// capability surface (ModelLister, CostCalculator, ConfigValidator) and can
// be scripted to fail the first N calls, return fixed responses, models,
// costs, and stream chunks, and report every call it received.
type MockProvider struct {
	mu sync.Mutex

	// ProviderName is returned by Name.
	ProviderName string

	// FailFirst makes the first N Chat/ChatStream calls fail with FailErr.
	FailFirst int
	FailErr   error

	// Response is returned by Chat once failures are exhausted.
	Response *providers.Response

	// Models is returned by GetModels. ModelsErr takes precedence.
	Models    []providers.ModelInfo
	ModelsErr error

	// CostPerCall is returned by Cost regardless of usage.
	CostPerCall float64

	// Chunks are replayed by ChatStream once failures are exhausted.
	Chunks []providers.ChatChunk

	// StreamErr, when set, is delivered as the final chunk's Err after
	// Chunks are replayed, simulating a mid-stream failure.
	StreamErr error

	// ValidateResult is returned by ValidateConfig. The zero value reports
	// an invalid config, so tests normally set IsValid.
	ValidateResult providers.ValidationResult

	chatCalls   int
	streamCalls int
	modelCalls  int
	lastRequest *providers.Request
}

var (
	_ providers.Provider        = (*MockProvider)(nil)
	_ providers.ModelLister     = (*MockProvider)(nil)
	_ providers.CostCalculator  = (*MockProvider)(nil)
	_ providers.ConfigValidator = (*MockProvider)(nil)
)

// NewMockProvider returns a mock that succeeds immediately with a minimal
// response and a valid config.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		Response: &providers.Response{
			ID:     "resp-" + name,
			Object: "chat.completion",
			Model:  "mock-model",
			Choices: []providers.Choice{
				{
					Message:      &providers.Message{Role: providers.RoleAssistant, Content: "ok"},
					FinishReason: providers.FinishReasonStop,
				},
			},
		},
		ValidateResult: providers.ValidationResult{IsValid: true},
	}
}

// Name implements providers.Provider.
func (p *MockProvider) Name() string {
	return p.ProviderName
}

// Chat implements providers.Provider.
func (p *MockProvider) Chat(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.chatCalls++
	p.lastRequest = req.Clone()

	if p.chatCalls <= p.FailFirst {
		return nil, p.failErr()
	}
	return p.Response, nil
}

// ChatStream implements providers.Provider. Setup failures consume the same
// FailFirst budget as Chat failures.
func (p *MockProvider) ChatStream(ctx context.Context, req *providers.Request) (<-chan providers.ChatChunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.streamCalls++
	p.lastRequest = req.Clone()

	if p.chatCalls+p.streamCalls <= p.FailFirst {
		return nil, p.failErr()
	}

	out := make(chan providers.ChatChunk, len(p.Chunks)+1)
	for _, chunk := range p.Chunks {
		out <- chunk
	}
	if p.StreamErr != nil {
		out <- providers.ChatChunk{Err: p.StreamErr}
	}
	close(out)
	return out, nil
}

// GetModels implements providers.ModelLister.
func (p *MockProvider) GetModels(ctx context.Context) ([]providers.ModelInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.modelCalls++
	if p.ModelsErr != nil {
		return nil, p.ModelsErr
	}
	return p.Models, nil
}

// Cost implements providers.CostCalculator.
func (p *MockProvider) Cost(model string, usage providers.TokenUsage) float64 {
	return p.CostPerCall
}

// ValidateConfig implements providers.ConfigValidator.
func (p *MockProvider) ValidateConfig(cfg providers.Config) providers.ValidationResult {
	return p.ValidateResult
}

// ChatCalls returns the number of Chat calls received.
func (p *MockProvider) ChatCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chatCalls
}

// StreamCalls returns the number of ChatStream calls received.
func (p *MockProvider) StreamCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streamCalls
}

// ModelCalls returns the number of GetModels calls received.
func (p *MockProvider) ModelCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.modelCalls
}

// LastRequest returns a copy of the most recent request received.
func (p *MockProvider) LastRequest() *providers.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRequest
}

func (p *MockProvider) failErr() error {
	if p.FailErr != nil {
		return p.FailErr
	}
	return &providers.ProviderError{Provider: p.ProviderName, Message: "scripted failure"}
}

// BareProvider implements only the required Provider interface, with none of
// the optional capabilities, for exercising nil capability slots.
type BareProvider struct {
	ProviderName string
	Response     *providers.Response
	Err          error
}

var _ providers.Provider = (*BareProvider)(nil)

// Name implements providers.Provider.
func (p *BareProvider) Name() string {
	return p.ProviderName
}

// Chat implements providers.Provider.
func (p *BareProvider) Chat(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Response, nil
}

// ChatStream implements providers.Provider.
func (p *BareProvider) ChatStream(ctx context.Context, req *providers.Request) (<-chan providers.ChatChunk, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	out := make(chan providers.ChatChunk, 1)
	out <- providers.ChatChunk{
		Choices: []providers.ChunkChoice{{FinishReason: providers.FinishReasonStop}},
	}
	close(out)
	return out, nil
}
