package routing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storymaster/arbiter/pkg/providers"
	"storymaster/arbiter/pkg/telemetry/metrics"
)

// DefaultCatalogTTL is the shared freshness window for cached model catalogs.
const DefaultCatalogTTL = 600 * time.Second

// catalogEntry is one provider's cached model list and its fetch time.
type catalogEntry struct {
	models    []providers.ModelInfo
	fetchedAt time.Time
}

// CatalogCache caches per-provider model catalogs under a shared TTL.
// Lookups fresher than the TTL are reused; stale lookups trigger a refetch.
// Fetches run outside the lock, so two concurrent callers may both refresh
// the same stale entry; the race wastes one extra fetch and the later store
// wins.
type CatalogCache struct {
	mu      sync.Mutex
	entries map[string]catalogEntry

	ttl    time.Duration
	logger *slog.Logger

	// cacheMetrics mirrors hits/misses/evictions to Prometheus when set.
	cacheMetrics *metrics.CacheMetrics

	// now is replaceable in tests.
	now func() time.Time
}

// NewCatalogCache creates a catalog cache with the given TTL.
// A zero or negative TTL falls back to DefaultCatalogTTL.
func NewCatalogCache(ttl time.Duration, logger *slog.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogCache{
		entries: make(map[string]catalogEntry),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// SetCacheMetrics attaches Prometheus cache collectors. Must be called
// before the cache is shared between goroutines.
func (c *CatalogCache) SetCacheMetrics(cm *metrics.CacheMetrics) {
	c.cacheMetrics = cm
}

// TTL returns the shared freshness window.
func (c *CatalogCache) TTL() time.Duration {
	return c.ttl
}

// Models returns the provider's model catalog, reusing the cached entry when
// it is fresher than the TTL and calling fetch otherwise. A fetch failure is
// returned without disturbing whatever entry is already cached.
func (c *CatalogCache) Models(ctx context.Context, provider string, fetch func(ctx context.Context) ([]providers.ModelInfo, error)) ([]providers.ModelInfo, error) {
	c.mu.Lock()
	entry, ok := c.entries[provider]
	fresh := ok && c.now().Sub(entry.fetchedAt) < c.ttl
	c.mu.Unlock()

	if fresh {
		if c.cacheMetrics != nil {
			c.cacheMetrics.RecordHit("catalog")
		}
		return entry.models, nil
	}

	if c.cacheMetrics != nil {
		c.cacheMetrics.RecordMiss("catalog")
	}

	models, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[provider] = catalogEntry{models: models, fetchedAt: c.now()}
	size := len(c.entries)
	c.mu.Unlock()

	if c.cacheMetrics != nil {
		c.cacheMetrics.SetSize("catalog", size)
	}

	c.logger.Debug("model catalog refreshed",
		"provider", provider,
		"models", len(models),
	)
	return models, nil
}

// Sweep drops every entry older than the TTL, regardless of current demand,
// and returns the number of entries removed.
func (c *CatalogCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for provider, entry := range c.entries {
		if now.Sub(entry.fetchedAt) > c.ttl {
			delete(c.entries, provider)
			removed++
			c.logger.Debug("evicted expired model catalog", "provider", provider)
		}
	}

	if c.cacheMetrics != nil && removed > 0 {
		c.cacheMetrics.RecordEvictions("catalog", removed)
		c.cacheMetrics.SetSize("catalog", len(c.entries))
	}
	return removed
}

// Size returns the current number of cached catalogs.
func (c *CatalogCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Run sweeps expired entries every TTL/2 until the context is cancelled.
// It is the only long-lived task owned by the routing core; the manager
// cancels it on shutdown and waits for it to return.
func (c *CatalogCache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := c.Sweep(); removed > 0 {
				c.logger.Debug("catalog sweep complete", "evicted", removed)
			}
		case <-ctx.Done():
			c.logger.Debug("catalog sweeper stopped")
			return
		}
	}
}
