package providers

import "time"

// Priority expresses how urgent a request is. It only influences candidate
// scoring in discovery mode; it never reorders requests on the wire.
type Priority string

// Request priority levels.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Message role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Content part type constants for multimodal messages.
const (
	PartTypeText     = "text"
	PartTypeImageURL = "image_url"
)

// Finish reason constants.
const (
	FinishReasonStop   = "stop"
	FinishReasonLength = "length"
	FinishReasonError  = "error"
)

// ContentPart is one element of a structured (multimodal) message body.
type ContentPart struct {
	// Type is the part kind ("text" or "image_url")
	Type string `json:"type"`

	// Text is the text content for text parts
	Text string `json:"text,omitempty"`

	// ImageURL is the image location for image parts
	ImageURL string `json:"image_url,omitempty"`
}

// Message represents a single message in a conversation.
// Content carries plain text; Parts carries structured multimodal content.
// When Parts is non-empty it takes precedence over Content.
type Message struct {
	// Role identifies the message sender (system, user, assistant, tool)
	Role string `json:"role"`

	// Content is the plain text content
	Content string `json:"content,omitempty"`

	// Parts is the structured content for multimodal messages
	Parts []ContentPart `json:"parts,omitempty"`

	// ToolCalls contains tool calls made by the assistant
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID references the tool call this message responds to
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// HasImage reports whether the message carries any image content part.
func (m Message) HasImage() bool {
	for _, part := range m.Parts {
		if part.Type == PartTypeImageURL {
			return true
		}
	}
	return false
}

// TextLen returns the number of characters of textual content, counting
// both the plain body and any structured text parts.
func (m Message) TextLen() int {
	n := len(m.Content)
	for _, part := range m.Parts {
		n += len(part.Text)
	}
	return n
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	// ID is a unique identifier for this tool call
	ID string `json:"id"`

	// Type is the tool kind (currently always "function")
	Type string `json:"type"`

	// Name is the function name to call
	Name string `json:"name"`

	// Arguments is a JSON string containing the call arguments
	Arguments string `json:"arguments"`
}

// Tool describes a tool the model may call.
type Tool struct {
	// Type is the tool kind (currently always "function")
	Type string `json:"type"`

	// Name is the function name
	Name string `json:"name"`

	// Description explains what the function does
	Description string `json:"description,omitempty"`

	// Parameters is a JSON Schema object describing the arguments
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// TokenUsage tracks token consumption for one request, either measured from
// a provider response or estimated pre-flight.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is prompt plus completion
	TotalTokens int `json:"total_tokens"`
}

// Request is a provider-agnostic chat completion request.
type Request struct {
	// Messages is the ordered conversation history
	Messages []Message `json:"messages"`

	// Provider optionally pins the request to a specific provider.
	// Empty means the configured default provider.
	Provider string `json:"provider,omitempty"`

	// Model optionally pins the request to a specific model.
	// Empty means the provider's configured default model.
	Model string `json:"model,omitempty"`

	// MaxTokens caps the completion length (0 = provider default)
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (nil = provider default)
	Temperature *float64 `json:"temperature,omitempty"`

	// System is an optional system prompt
	System string `json:"system,omitempty"`

	// Tools lists tools the model may call
	Tools []Tool `json:"tools,omitempty"`

	// ToolChoice controls which tools may be called
	ToolChoice interface{} `json:"tool_choice,omitempty"`

	// ReasoningBudget caps reasoning tokens for models that support it
	ReasoningBudget int `json:"reasoning_budget,omitempty"`

	// Priority influences discovery-mode scoring (low, medium, high)
	Priority Priority `json:"priority,omitempty"`

	// RequestID correlates log events and usage records. It is assigned by
	// the manager when empty and never influences routing decisions.
	RequestID string `json:"request_id,omitempty"`

	// UserID and SessionID are correlation ids for logging only.
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Clone returns a shallow copy of the request. Message contents are shared;
// callers that mutate routing fields (Provider, Model) must clone first.
func (r *Request) Clone() *Request {
	clone := *r
	return &clone
}

// HasImages reports whether any message carries image content, which
// restricts discovery-mode candidates to multimodal-capable models.
func (r *Request) HasImages() bool {
	for _, msg := range r.Messages {
		if msg.HasImage() {
			return true
		}
	}
	return false
}

// Choice is one completion alternative in a Response.
type Choice struct {
	// Index is the choice position
	Index int `json:"index"`

	// Message is the generated message
	Message *Message `json:"message,omitempty"`

	// FinishReason indicates why generation stopped
	FinishReason string `json:"finish_reason,omitempty"`
}

// Response is the provider-agnostic chat completion envelope. It is passed
// through the routing layer unchanged except when synthesized for failover.
type Response struct {
	// ID is the unique response identifier
	ID string `json:"id"`

	// Object is the envelope type tag ("chat.completion")
	Object string `json:"object"`

	// Created is the Unix timestamp when the response was created
	Created int64 `json:"created"`

	// Model is the model that generated the response
	Model string `json:"model"`

	// Choices contains the generated alternatives
	Choices []Choice `json:"choices"`

	// Usage contains token consumption, when the provider reports it
	Usage *TokenUsage `json:"usage,omitempty"`
}

// Content returns the text content of the first choice, or "".
func (r *Response) Content() string {
	if r == nil || len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return ""
	}
	return r.Choices[0].Message.Content
}

// FinishReason returns the finish reason of the first choice, or "".
func (r *Response) FinishReason() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].FinishReason
}

// Delta is the incremental payload of a streaming chunk.
type Delta struct {
	// Content is the incremental text
	Content string `json:"content,omitempty"`

	// ToolCalls contains incremental tool call fragments
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ChunkChoice is one alternative within a streaming chunk.
type ChunkChoice struct {
	// Index is the choice position
	Index int `json:"index"`

	// Delta is the incremental content
	Delta Delta `json:"delta"`

	// FinishReason is set on the terminal chunk
	FinishReason string `json:"finish_reason,omitempty"`
}

// ChatChunk is the streaming counterpart of Response.
type ChatChunk struct {
	// ID is the response identifier (same across all chunks)
	ID string `json:"id"`

	// Object is the envelope type tag ("chat.completion.chunk")
	Object string `json:"object"`

	// Created is the Unix timestamp when the chunk was created
	Created int64 `json:"created"`

	// Model is the model generating the response
	Model string `json:"model"`

	// Choices contains the incremental alternatives
	Choices []ChunkChoice `json:"choices"`

	// Err is set if the stream failed; no chunks follow one with Err set
	Err error `json:"-"`
}

// Content returns the concatenated delta text across the chunk's choices.
func (c ChatChunk) Content() string {
	var out string
	for _, choice := range c.Choices {
		out += choice.Delta.Content
	}
	return out
}

// FinishReason returns the first non-empty finish reason in the chunk, or "".
func (c ChatChunk) FinishReason() string {
	for _, choice := range c.Choices {
		if choice.FinishReason != "" {
			return choice.FinishReason
		}
	}
	return ""
}

// ModelInfo describes one model a provider reports in its catalog.
type ModelInfo struct {
	// ID is the model identifier used on the wire
	ID string `json:"id"`

	// Name is the human-readable model name
	Name string `json:"name,omitempty"`

	// MaxTokens is the maximum completion length
	MaxTokens int `json:"max_tokens,omitempty"`

	// ContextWindow is the total context size
	ContextWindow int `json:"context_window,omitempty"`

	// SupportsImages marks multimodal-capable models
	SupportsImages bool `json:"supports_images,omitempty"`

	// Deprecated marks models excluded from discovery
	Deprecated bool `json:"deprecated,omitempty"`
}

// Config contains the opaque per-provider configuration bag handed to an
// adapter factory. It is owned by the application layer and read-only to the
// routing core.
type Config struct {
	// Name is the provider identity this config belongs to
	Name string

	// Type is the adapter kind (e.g. "anthropic", "openai-compatible")
	Type string

	// BaseURL is the API endpoint base URL
	BaseURL string

	// APIKey is the authentication credential
	APIKey string

	// Model is the provider's configured default model
	Model string

	// Timeout is the per-call timeout the adapter must enforce
	Timeout time.Duration

	// Extra carries adapter-specific settings the core never interprets
	Extra map[string]string
}

// ValidationResult reports the outcome of adapter config validation.
type ValidationResult struct {
	// IsValid is true when the configuration is usable
	IsValid bool

	// Errors lists the problems found
	Errors []string
}
