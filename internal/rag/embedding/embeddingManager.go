package embedding

import "context"

// Embedder turns text into vectors. The indexer and the server must use
// embedders with the same ModelID.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	// ModelID is "provider:model" and is stored in the index manifest.
	ModelID() string
}

// Cache stores query vectors keyed by an opaque string.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vector []float32) error
}
