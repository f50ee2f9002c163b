// internal/cache/catalog.go
package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CatalogCache is a read-through cache for catalog queries. Every distinct
// filter combination gets its own entry, valid for a bounded TTL.
//
// Invalidation uses a generation counter instead of pattern-matched key
// deletion: every catalog write bumps the generation, which changes the key
// of every subsequent lookup. Orphaned entries from older generations are
// reclaimed by the janitor when their TTL lapses.
type CatalogCache struct {
	store      *gocache.Cache
	generation atomic.Uint64
}

func NewCatalogCache(ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		store: gocache.New(ttl, 2*time.Minute),
	}
}

// Get returns the cached value for key in the current generation.
func (c *CatalogCache) Get(key string) (interface{}, bool) {
	return c.store.Get(c.versionedKey(key))
}

// Set stores value under key in the current generation.
func (c *CatalogCache) Set(key string, value interface{}) {
	c.store.Set(c.versionedKey(key), value, gocache.DefaultExpiration)
}

// Invalidate makes every cached entry unreachable. Called synchronously from
// catalog writes; stale stock displays after a write are unacceptable.
func (c *CatalogCache) Invalidate() {
	c.generation.Add(1)
}

// Generation exposes the current generation, mainly for tests.
func (c *CatalogCache) Generation() uint64 {
	return c.generation.Load()
}

func (c *CatalogCache) versionedKey(key string) string {
	return fmt.Sprintf("g%d|%s", c.generation.Load(), key)
}
