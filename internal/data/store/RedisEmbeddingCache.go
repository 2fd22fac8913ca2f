package store

import (
	"context"
	"encoding/json"

	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/data/redisStore"
	"github.com/ragdemo/docchat/internal/rag/embedding"
	"github.com/ragdemo/docchat/pkg/logger_i"
)

type RedisEmbeddingCache struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func (s *RedisEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	log := s.logger.WithTrace(ctx)
	val, err := s.store.Get(ctx, key)
	if s.store.IsNil(err) {
		return nil, false
	} else if err != nil {
		log.Warn("Embedding cache read failed", "error", err)
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal([]byte(val), &vector); err != nil {
		log.Warn("Embedding cache entry is corrupt", "key", key, "error", err)
		return nil, false
	}
	return vector, true
}

func (s *RedisEmbeddingCache) Set(ctx context.Context, key string, vector []float32) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key, data, config.EmbeddingCacheTTL)
}

// GetEmbeddingCache picks the cache named by backend. When redis is chosen but
// offline it falls back to the in-memory cache.
func GetEmbeddingCache(ctx context.Context, backend string, redisAddr string) embedding.Cache {
	logger := logger_i.NewLogger("EmbeddingCache")
	switch backend {
	case "off", "none":
		logger.Info("Query embedding cache disabled")
		return nil
	case "memory":
		return InitInMemoryEmbeddingCache()
	}

	redis := redisStore.GetRedisStore(ctx, redisAddr, config.RedisEmbeddingCacheDB)
	if redis == nil {
		logger.Error("Redis is offline, using in-memory embedding cache")
		return InitInMemoryEmbeddingCache()
	}
	return &RedisEmbeddingCache{store: redis, logger: logger}
}

func TestEmbeddingCache(store *redisStore.Store) *RedisEmbeddingCache {
	return &RedisEmbeddingCache{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
