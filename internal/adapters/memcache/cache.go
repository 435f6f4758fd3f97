// Package memcache is the in-process cache used when Valkey is unreachable.
package memcache

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/samirrijal/placemap/internal/pkg/metrics"
)

// ErrMiss is returned by Get for absent or expired keys.
var ErrMiss = errors.New("cache miss")

// Cache implements ports.CacheService on top of go-cache.
type Cache struct {
	c *gocache.Cache
}

// New creates a cache whose expired entries are purged every cleanupInterval.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{c: gocache.New(defaultTTL, cleanupInterval)}
}

// Get retrieves a value by key.
func (m *Cache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrMiss
	}
	metrics.CacheHits.WithLabelValues("memory").Inc()
	return v.([]byte), nil
}

// Set stores a copy of value with a TTL in seconds; ttlSeconds <= 0 uses the default TTL.
func (m *Cache) Set(_ context.Context, key string, value []byte, ttlSeconds int) error {
	ttl := gocache.DefaultExpiration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	m.c.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Delete removes a key.
func (m *Cache) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
