// Package memcache is an in-process CacheService for single-instance
// deployments that run without Valkey.
package memcache

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tanbirz/manchitra/internal/pkg/metrics"
)

// ErrMiss is returned by Get for absent or expired keys.
var ErrMiss = errors.New("cache miss")

// Cache implements ports.CacheService on an expirable LRU. All entries
// share the TTL fixed at construction; the per-call TTL of Set is
// accepted for interface compatibility but does not override it.
type Cache struct {
	lru *expirable.LRU[string, []byte]
}

// New creates a cache holding at most size entries for at most ttl.
// A zero ttl keeps entries until evicted by capacity.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := c.lru.Get(key)
	if !ok {
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrMiss
	}
	metrics.CacheHits.WithLabelValues("memory").Inc()
	return v, nil
}

// Set stores a value. See the Cache doc for TTL semantics.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.lru.Add(key, value)
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Ping reports readiness. The in-process cache is always reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
