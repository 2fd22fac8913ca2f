package store

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestInMemoryEmbeddingCache_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cache := InitInMemoryEmbeddingCache()
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []float32{1}); err != nil {
		t.Fatal(err)
	}

	now = now.Add(cache.ttl - time.Second)
	if _, found := cache.Get(ctx, "k"); !found {
		t.Fatal("entry should still be valid before the ttl")
	}

	now = now.Add(2 * time.Second)
	if _, found := cache.Get(ctx, "k"); found {
		t.Fatal("entry should expire after the ttl")
	}
	if len(cache.entries) != 0 {
		t.Errorf("expired entry should be evicted on read, %d left", len(cache.entries))
	}
}

func TestInMemoryEmbeddingCache_BoundedSize(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cache := InitInMemoryEmbeddingCache()
	cache.now = func() time.Time { return now }
	cache.maxKeys = 3
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		now = now.Add(time.Second)
		if err := cache.Set(ctx, fmt.Sprintf("k%d", i), []float32{float32(i)}); err != nil {
			t.Fatal(err)
		}
		if len(cache.entries) > cache.maxKeys {
			t.Fatalf("cache grew to %d entries, cap is %d", len(cache.entries), cache.maxKeys)
		}
	}
	if _, found := cache.Get(ctx, "k0"); found {
		t.Error("oldest entry should have been evicted")
	}
	if v, found := cache.Get(ctx, "k9"); !found || v[0] != 9 {
		t.Error("newest entry should be kept")
	}

	// overwriting a key at the cap evicts nothing
	if err := cache.Set(ctx, "k9", []float32{42}); err != nil {
		t.Fatal(err)
	}
	if _, found := cache.Get(ctx, "k7"); !found {
		t.Error("overwrite should not evict another key")
	}
}

func TestInMemoryEmbeddingCache_SweepsExpiredWhenFull(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cache := InitInMemoryEmbeddingCache()
	cache.now = func() time.Time { return now }
	cache.maxKeys = 3
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := cache.Set(ctx, k, []float32{1}); err != nil {
			t.Fatal(err)
		}
	}
	now = now.Add(cache.ttl + time.Minute)
	if err := cache.Set(ctx, "d", []float32{2}); err != nil {
		t.Fatal(err)
	}
	if len(cache.entries) != 1 {
		t.Errorf("expired entries should be swept, %d left", len(cache.entries))
	}
}
