// Package cache provides a small in-memory TTL cache for upstream responses.
//
// Each route owns its own Cache with its own TTL and entry cap. Values are raw
// JSON bytes so repeated hits serve byte-identical bodies. The cache is bounded:
// when an insert pushes the entry count past the cap, the entry with the oldest
// store time is evicted. Eviction is an O(n) scan, which is fine at the caps
// used here (100-200 entries).
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value    []byte
	storedAt time.Time
}

// Cache is a mutex-protected TTL cache keyed by string.
type Cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]entry
	now        func() time.Time
}

// New creates a cache with the given TTL and entry cap.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]entry),
		now:        time.Now,
	}
}

// SetClock overrides the cache's time source. Tests use this to control
// simulated time; production code never calls it.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the cached value for key if present and within the TTL.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

// GetStale returns the cached value for key even if its TTL has elapsed.
// Fetchers use this as a degraded fallback when every upstream fails -
// stale data is better than no data.
func (c *Cache) GetStale(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key. If the insert pushes the cache past its cap,
// the entry with the smallest storedAt is evicted.
func (c *Cache) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)

	c.entries[key] = entry{value: v, storedAt: c.now()}

	if len(c.entries) <= c.maxEntries {
		return
	}

	// Evict the globally-oldest entry.
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
			first = false
		}
	}
	delete(c.entries, oldestKey)
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
