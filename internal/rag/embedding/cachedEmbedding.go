package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/metrics"
	"github.com/ragdemo/docchat/pkg/logger_i"
)

type cachedEmbedder struct {
	next   Embedder
	cache  Cache
	logger *logger_i.Logger
}

// WithCache memoises single-query embeddings. Batch calls go straight to
// the wrapped embedder.
func WithCache(next Embedder, cache Cache) Embedder {
	if cache == nil {
		return next
	}
	return &cachedEmbedder{
		next:   next,
		cache:  cache,
		logger: logger_i.NewLogger("embedding_cache"),
	}
}

func (c *cachedEmbedder) ModelID() string {
	return c.next.ModelID()
}

func (c *cachedEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	key := CacheKey(c.next.ModelID(), query)
	if vec, ok := c.cache.Get(ctx, key); ok {
		metrics.CacheHit()
		return vec, nil
	}
	metrics.CacheMiss()

	vec, err := c.next.GetEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, vec); err != nil {
		c.logger.WithTrace(ctx).Warn("Could not cache query embedding", "error", err)
	}
	return vec, nil
}

func (c *cachedEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.BatchEmbedding(ctx, texts)
}

func CacheKey(modelID string, text string) string {
	sum := sha256.Sum256([]byte(text))
	return config.EmbeddingCachePrefix + modelID + ":" + hex.EncodeToString(sum[:])
}
