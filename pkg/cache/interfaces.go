package cache

import "time"

// Store defines the interface for cache operations.
type Store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	SetWithTTL(key string, value V, ttl time.Duration)
	Purge() int
}

var _ Store[string] = (*Cache[string])(nil)
