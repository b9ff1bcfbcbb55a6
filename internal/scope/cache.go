package scope

import (
	"sync"
	"time"
)

// cacheKey identifies one memoized resolution. The inherit flag is part
// of the key because inheriting and non-inheriting chains differ, but
// invalidation deliberately ignores it: a structural change to a scope
// stales both variants.
type cacheKey struct {
	typ     Type
	id      string
	inherit bool
}

type cacheEntry struct {
	chain     Chain
	expiresAt time.Time
}

// ChainCache memoizes resolved scope chains with a TTL.
//
// Expiry is passive: entries are checked on access, there is no
// background sweep. Reads take the read lock only; Put and the
// invalidation methods serialize against readers so a caller never
// observes a half-removed entry.
type ChainCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewChainCache creates a cache with the given TTL. A non-positive TTL
// disables caching entirely (every Get misses).
func NewChainCache(ttl time.Duration) *ChainCache {
	return &ChainCache{
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached chain for (typ, id, inherit), or ok=false on a
// miss or an expired entry.
func (c *ChainCache) Get(typ Type, id string, inherit bool) (Chain, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.entries[cacheKey{typ: typ, id: id, inherit: inherit}]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.chain, true
}

// Put stores a resolved chain under (typ, id, inherit).
func (c *ChainCache) Put(typ Type, id string, inherit bool, chain Chain) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[cacheKey{typ: typ, id: id, inherit: inherit}] = cacheEntry{
		chain:     chain,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate removes the cached chains for (typ, id) — both the
// inheriting and non-inheriting variants — in one critical section.
func (c *ChainCache) Invalidate(typ Type, id string) {
	c.mu.Lock()
	delete(c.entries, cacheKey{typ: typ, id: id, inherit: true})
	delete(c.entries, cacheKey{typ: typ, id: id, inherit: false})
	c.mu.Unlock()
}

// InvalidateContaining removes every cached chain that includes a link
// at (typ, id). Reparenting a project must stale not only the project's
// own chains but any cached session chain that runs through it; the
// cache is small, so a full scan is acceptable.
func (c *ChainCache) InvalidateContaining(typ Type, id string) {
	c.mu.Lock()
	for k, e := range c.entries {
		if e.chain.Contains(typ, &id) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Clear empties the cache.
func (c *ChainCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of live entries, expired ones included until
// their next access.
func (c *ChainCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
