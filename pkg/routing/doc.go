// Package routing is the provider-orchestration core: it resolves each chat
// request to one concrete (provider, model) assignment, executes it with
// bounded retries and exponential backoff, fails over across the configured
// fallback list, and keeps live per-provider health and cost counters.
//
// The Manager is the single entry point. The default Chat/ChatStream path
// always targets the configured default provider (or the request's explicit
// pin); discovery mode (FindCandidates, ScheduleBest) scores all initialized
// providers and is a separate entry point, never consulted on the ordinary
// path.
//
// The provider set is populated once by Initialize and read-only afterward;
// adding a provider later means constructing a new Manager.
package routing
