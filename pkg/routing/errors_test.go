package routing

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorSentinelMatching(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"configuration", &ConfigurationError{Reason: "no model"}, ErrConfiguration},
		{"unknown provider", &UnknownProviderError{Provider: "ghost"}, ErrConfiguration},
		{"model unavailable", &ModelUnavailableError{Provider: "alpha", Model: "m"}, ErrModelUnavailable},
		{"no candidates", &NoCandidatesError{}, ErrNoCandidates},
		{"failover exhausted", &FailoverExhaustedError{}, ErrFailoverExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.want)
			}
		})
	}
}

func TestUnknownProviderErrorMessage(t *testing.T) {
	err := &UnknownProviderError{Provider: "ghost", Available: []string{"alpha", "beta"}}
	if msg := err.Error(); !strings.Contains(msg, "alpha, beta") {
		t.Errorf("Error() = %q, want it to name the available providers", msg)
	}

	empty := &UnknownProviderError{Provider: "ghost"}
	if msg := empty.Error(); !strings.Contains(msg, "none") {
		t.Errorf("Error() = %q, want %q for an empty provider set", msg, "none")
	}
}

func TestFailoverExhaustedErrorUnwrap(t *testing.T) {
	last := errors.New("last")
	cause := errors.New("cause")
	err := &FailoverExhaustedError{Attempted: []string{"beta"}, LastErr: last, Cause: cause}

	if !errors.Is(err, last) {
		t.Error("does not unwrap to the last fallback error")
	}
	if !errors.Is(err, cause) {
		t.Error("does not unwrap to the original cause")
	}
}
