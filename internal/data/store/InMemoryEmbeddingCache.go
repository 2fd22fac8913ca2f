package store

import (
	"context"
	"sync"
	"time"

	"github.com/ragdemo/docchat/internal/config"
)

type cachedVector struct {
	vector    []float32
	expiresAt time.Time
}

type InMemoryEmbeddingCache struct {
	mu      sync.RWMutex
	entries map[string]cachedVector
	ttl     time.Duration
	maxKeys int
	now     func() time.Time
}

func InitInMemoryEmbeddingCache() *InMemoryEmbeddingCache {
	return &InMemoryEmbeddingCache{
		entries: make(map[string]cachedVector),
		ttl:     config.EmbeddingCacheTTL,
		maxKeys: config.EmbeddingCacheMaxKeys,
		now:     time.Now,
	}
}

func (c *InMemoryEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()
	if !found {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.vector, true
}

func (c *InMemoryEmbeddingCache) Set(ctx context.Context, key string, vector []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxKeys {
		c.evictLocked(now)
	}
	c.entries[key] = cachedVector{vector: vector, expiresAt: now.Add(c.ttl)}
	return nil
}

// evictLocked drops every expired entry, and the one closest to expiry when
// the cache is still full. Caller holds mu.
func (c *InMemoryEmbeddingCache) evictLocked(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for k, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = k, entry.expiresAt
		}
	}
	if len(c.entries) >= c.maxKeys && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
