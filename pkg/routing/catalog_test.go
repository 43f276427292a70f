package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"storymaster/arbiter/pkg/providers"
)

func TestCatalogCacheReusesFreshEntries(t *testing.T) {
	cache := NewCatalogCache(10*time.Minute, testLogger())

	now := time.Now()
	cache.now = func() time.Time { return now }

	fetches := 0
	fetch := func(context.Context) ([]providers.ModelInfo, error) {
		fetches++
		return []providers.ModelInfo{{ID: "model-x"}}, nil
	}

	for i := 0; i < 3; i++ {
		models, err := cache.Models(context.Background(), "alpha", fetch)
		if err != nil {
			t.Fatalf("Models failed: %v", err)
		}
		if len(models) != 1 || models[0].ID != "model-x" {
			t.Fatalf("Models = %v, want [model-x]", models)
		}
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1 (fresh entries reused)", fetches)
	}

	// Past the TTL the entry is never trusted.
	now = now.Add(11 * time.Minute)
	if _, err := cache.Models(context.Background(), "alpha", fetch); err != nil {
		t.Fatalf("Models failed: %v", err)
	}
	if fetches != 2 {
		t.Errorf("fetches = %d, want 2 (stale entry refetched)", fetches)
	}
}

func TestCatalogCacheFetchFailureKeepsNothing(t *testing.T) {
	cache := NewCatalogCache(10*time.Minute, testLogger())

	fetchErr := errors.New("upstream down")
	_, err := cache.Models(context.Background(), "alpha", func(context.Context) ([]providers.ModelInfo, error) {
		return nil, fetchErr
	})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("Models error = %v, want %v", err, fetchErr)
	}
	if cache.Size() != 0 {
		t.Errorf("Size = %d, want 0 after failed fetch", cache.Size())
	}
}

func TestCatalogCacheFetchFailurePreservesOldEntry(t *testing.T) {
	cache := NewCatalogCache(time.Minute, testLogger())

	now := time.Now()
	cache.now = func() time.Time { return now }

	good := func(context.Context) ([]providers.ModelInfo, error) {
		return []providers.ModelInfo{{ID: "model-x"}}, nil
	}
	if _, err := cache.Models(context.Background(), "alpha", good); err != nil {
		t.Fatalf("Models failed: %v", err)
	}

	now = now.Add(2 * time.Minute)
	bad := func(context.Context) ([]providers.ModelInfo, error) {
		return nil, errors.New("upstream down")
	}
	if _, err := cache.Models(context.Background(), "alpha", bad); err == nil {
		t.Fatal("Models succeeded, want fetch error")
	}
	if cache.Size() != 1 {
		t.Errorf("Size = %d, want the stale entry left in place", cache.Size())
	}
}

func TestCatalogCacheSweep(t *testing.T) {
	cache := NewCatalogCache(time.Minute, testLogger())

	now := time.Now()
	cache.now = func() time.Time { return now }

	fetch := func(context.Context) ([]providers.ModelInfo, error) {
		return []providers.ModelInfo{{ID: "model-x"}}, nil
	}
	for _, provider := range []string{"alpha", "beta"} {
		if _, err := cache.Models(context.Background(), provider, fetch); err != nil {
			t.Fatalf("Models failed: %v", err)
		}
	}

	if removed := cache.Sweep(); removed != 0 {
		t.Errorf("Sweep removed %d fresh entries, want 0", removed)
	}

	now = now.Add(2 * time.Minute)
	if removed := cache.Sweep(); removed != 2 {
		t.Errorf("Sweep removed %d, want 2", removed)
	}
	if cache.Size() != 0 {
		t.Errorf("Size = %d, want 0 after sweep", cache.Size())
	}
}

func TestCatalogCachePanickingFetchDoesNotWedgeCache(t *testing.T) {
	cache := NewCatalogCache(time.Minute, testLogger())

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the fetch panic to propagate")
			}
		}()
		_, _ = cache.Models(context.Background(), "alpha", func(context.Context) ([]providers.ModelInfo, error) {
			panic("fetch exploded")
		})
	}()

	// The lock is not held across fetches, so the cache stays usable.
	models, err := cache.Models(context.Background(), "alpha", func(context.Context) ([]providers.ModelInfo, error) {
		return []providers.ModelInfo{{ID: "model-x"}}, nil
	})
	if err != nil {
		t.Fatalf("Models failed after a panicking fetch: %v", err)
	}
	if len(models) != 1 {
		t.Errorf("Models = %v, want one entry", models)
	}
}

func TestCatalogCacheDefaultTTL(t *testing.T) {
	cache := NewCatalogCache(0, testLogger())
	if cache.TTL() != DefaultCatalogTTL {
		t.Errorf("TTL = %v, want %v", cache.TTL(), DefaultCatalogTTL)
	}
}

func TestCatalogCacheRunExitsOnCancel(t *testing.T) {
	cache := NewCatalogCache(time.Minute, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cache.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after cancellation")
	}
}
