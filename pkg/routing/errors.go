package routing

import (
	"errors"
	"fmt"
	"strings"
)

// Common routing errors that can be checked with errors.Is().
var (
	// ErrConfiguration is returned for unresolvable configuration: an unknown
	// or uninitialized provider, or a request with no resolvable model.
	// Configuration errors are surfaced immediately and never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrModelUnavailable is returned when a requested model is absent from
	// the provider's live catalog. It is neither retried nor substituted by
	// failover, since silently swapping models would hide a caller error.
	ErrModelUnavailable = errors.New("model not available")

	// ErrNoCandidates is returned by discovery-mode scheduling when no
	// provider offers a suitable model for the request.
	ErrNoCandidates = errors.New("no suitable candidates")

	// ErrFailoverExhausted is returned when every configured fallback was
	// attempted and failed.
	ErrFailoverExhausted = errors.New("all fallback providers failed")
)

// ConfigurationError is returned when a request cannot be resolved to a
// provider and model from the active configuration.
type ConfigurationError struct {
	// Reason describes what could not be resolved.
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// Is implements error matching for errors.Is().
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnknownProviderError is returned when the resolved provider is not part of
// the initialized provider set.
type UnknownProviderError struct {
	// Provider is the provider identity that could not be resolved.
	Provider string

	// Available contains the initialized provider identities.
	Available []string
}

// Error implements the error interface.
func (e *UnknownProviderError) Error() string {
	available := strings.Join(e.Available, ", ")
	if available == "" {
		available = "none"
	}
	return fmt.Sprintf("provider %q is not initialized (available providers: %s)",
		e.Provider, available)
}

// Is implements error matching for errors.Is().
func (e *UnknownProviderError) Is(target error) bool {
	return target == ErrConfiguration
}

// ModelUnavailableError is returned when the resolved model is absent from
// the provider's live catalog.
type ModelUnavailableError struct {
	// Provider is the provider whose catalog was checked.
	Provider string

	// Model is the model that is not available.
	Model string
}

// Error implements the error interface.
func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %q is not available for provider %q", e.Model, e.Provider)
}

// Is implements error matching for errors.Is().
func (e *ModelUnavailableError) Is(target error) bool {
	return target == ErrModelUnavailable
}

// NoCandidatesError is returned by discovery-mode scheduling when no
// initialized provider offers a suitable model.
type NoCandidatesError struct {
	// Providers contains the provider identities that were considered.
	Providers []string
}

// Error implements the error interface.
func (e *NoCandidatesError) Error() string {
	considered := strings.Join(e.Providers, ", ")
	if considered == "" {
		considered = "none"
	}
	return fmt.Sprintf("no suitable candidates found (considered providers: %s)", considered)
}

// Is implements error matching for errors.Is().
func (e *NoCandidatesError) Is(target error) bool {
	return target == ErrNoCandidates
}

// FailoverExhaustedError is returned when every configured fallback provider
// was attempted and failed. The surfaced message is the last fallback's
// error; the original primary failure is preserved as the cause.
type FailoverExhaustedError struct {
	// Attempted contains the fallback identities that were tried, in order.
	Attempted []string

	// LastErr is the error from the last attempted fallback.
	LastErr error

	// Cause is the original primary failure that triggered failover.
	Cause error
}

// Error implements the error interface.
func (e *FailoverExhaustedError) Error() string {
	return fmt.Sprintf("all fallback providers failed (attempted: %s): %v (original error: %v)",
		strings.Join(e.Attempted, ", "), e.LastErr, e.Cause)
}

// Is implements error matching for errors.Is().
func (e *FailoverExhaustedError) Is(target error) bool {
	return target == ErrFailoverExhausted
}

// Unwrap exposes both the last fallback error and the original cause for
// error chain traversal.
func (e *FailoverExhaustedError) Unwrap() []error {
	var errs []error
	if e.LastErr != nil {
		errs = append(errs, e.LastErr)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
