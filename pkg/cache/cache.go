// Package cache provides thread-safe caching with TTL support.
package cache

import (
	"sync"
	"time"
)

// entry holds a cached value with expiration.
type entry[V any] struct {
	value      V
	expiration time.Time
}

// Cache provides thread-safe caching with TTL.
type Cache[V any] struct {
	entries map[string]entry[V]
	now     func() time.Time
	mu      sync.RWMutex
	ttl     time.Duration
}

// New creates a new cache with the specified TTL.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		now:     time.Now,
		ttl:     ttl,
	}
}

// Get retrieves a value from cache if not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}

	if c.now().After(e.expiration) {
		c.mu.Lock()
		// Double-check after lock upgrade to avoid racing a concurrent Set
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiration) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

// Set stores a value in cache with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value in cache with custom TTL.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:      value,
		expiration: c.now().Add(ttl),
	}
}

// Purge removes expired entries and returns how many were dropped.
func (c *Cache[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for key, e := range c.entries {
		if now.After(e.expiration) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}
