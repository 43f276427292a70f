// Arbiter routes chat-completion requests across interchangeable LLM
// providers with automatic retry, ordered fallback, and live health and
// cost metrics.
//
// Usage:
//
//	# Validate a configuration file
//	arbiter validate --config config.yaml
//
//	# Score a hypothetical candidate
//	arbiter score --cost 0.002 --latency-ms 1500 --priority high
//
//	# Summarize the usage ledger
//	arbiter usage --config config.yaml
//
//	# Show version information
//	arbiter version
package main

func main() {
	Execute()
}
