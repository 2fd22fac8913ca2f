package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(query))}, nil
}

func (c *countingEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (c *countingEmbedder) ModelID() string { return "test:model" }

type mapCache map[string][]float32

func (m mapCache) Get(ctx context.Context, key string) ([]float32, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapCache) Set(ctx context.Context, key string, vector []float32) error {
	m[key] = vector
	return nil
}

func TestWithCache_NilCacheReturnsEmbedder(t *testing.T) {
	inner := &countingEmbedder{}
	assert.Same(t, inner, WithCache(inner, nil))
}

func TestWithCache_SecondLookupIsServedFromCache(t *testing.T) {
	inner := &countingEmbedder{}
	cache := mapCache{}
	em := WithCache(inner, cache)

	first, err := em.GetEmbedding(context.Background(), "GRILLE A")
	require.NoError(t, err)
	second, err := em.GetEmbedding(context.Background(), "GRILLE A")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Contains(t, cache, CacheKey("test:model", "GRILLE A"))
	assert.Equal(t, "test:model", em.ModelID())
}

func TestWithCache_ErrorsAreNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("ollama down")}
	cache := mapCache{}
	em := WithCache(inner, cache)

	_, err := em.GetEmbedding(context.Background(), "q")
	assert.Error(t, err)
	assert.Empty(t, cache)
}

func TestWithCache_BatchBypassesCache(t *testing.T) {
	inner := &countingEmbedder{}
	cache := mapCache{}
	em := WithCache(inner, cache)

	vectors, err := em.BatchEmbedding(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Empty(t, cache)
}

func TestCacheKey_DependsOnModel(t *testing.T) {
	assert.NotEqual(t, CacheKey("ollama:all-minilm", "q"), CacheKey("openai:text-embedding-3-small", "q"))
	assert.Equal(t, CacheKey("m", "q"), CacheKey("m", "q"))
}
