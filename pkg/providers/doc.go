// Package providers defines the capability interface that LLM provider
// adapters implement, the provider-agnostic request/response types exchanged
// through it, and the explicit registry the routing manager consumes.
//
// # Capability interface
//
// Adapters implement the small Provider interface (chat plus streaming chat).
// Optional capabilities (model catalogs, cost calculation, config
// validation) are separate interfaces detected once at registration time,
// never probed per call:
//
//	reg := providers.NewRegistry()
//	err := reg.Register("anthropic", func(cfg providers.Config) (providers.Provider, error) {
//	    return anthropic.New(cfg)
//	})
//
// An adapter that does not implement ModelLister is trusted to accept any
// caller-specified model; one that does not implement CostCalculator reports
// every request as zero cost.
//
// # Streaming
//
// Streaming responses are delivered as a channel of ChatChunk values. The
// channel is closed when the stream ends. A chunk with Err set means the
// stream failed; no further chunks follow it.
//
// The concrete vendor adapters (HTTP clients for specific APIs) live outside
// this module; tests use the scriptable adapter under internal/routing.
package providers
