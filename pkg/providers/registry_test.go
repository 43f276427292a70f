package providers

import (
	"testing"
)

func stubFactory(Config) (Provider, error) { return nil, nil }

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("alpha", stubFactory); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, ok := r.Lookup("alpha"); !ok {
		t.Error("Lookup did not find registered factory")
	}
	if _, ok := r.Lookup("ghost"); ok {
		t.Error("Lookup found unregistered factory")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistryRejectsBadRegistrations(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("", stubFactory); err == nil {
		t.Error("Register accepted an empty name")
	}
	if err := r.Register("alpha", nil); err == nil {
		t.Error("Register accepted a nil factory")
	}
	if err := r.Register("alpha", stubFactory); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register("alpha", stubFactory); err == nil {
		t.Error("Register accepted a duplicate name")
	}
}

func TestRegistryNamesPreservesOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(name, stubFactory); err != nil {
			t.Fatalf("Register(%q) failed: %v", name, err)
		}
	}

	names := r.Names()
	want := []string{"zeta", "alpha", "mid"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names = %v, want %v", names, want)
		}
	}

	// The returned slice is a copy.
	names[0] = "mutated"
	if r.Names()[0] != "zeta" {
		t.Error("mutating Names result leaked into the registry")
	}
}
