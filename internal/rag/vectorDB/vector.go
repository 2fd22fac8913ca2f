package vectorDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/ragdemo/docchat/internal/domain/commonModels"
)

var (
	ErrManifestMissing   = errors.New("vector store has no index manifest")
	ErrManifestMismatch  = errors.New("vector store was built with a different embedding model")
	ErrDimensionMismatch = errors.New("query vector dimension does not match the index")
)

type DataProcessor interface {
	// Search returns at most k records ordered by decreasing similarity.
	// An empty store yields no hits and no error.
	Search(ctx context.Context, vector []float32, k int) ([]commonModels.SearchHit, error)

	// indexer side
	Reset(ctx context.Context) error
	UpsertBatch(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error
	SaveManifest(ctx context.Context, manifest commonModels.IndexManifest) error

	GetManifest(ctx context.Context) (commonModels.IndexManifest, bool, error)
	Close() error
}

// CheckCompatibility fails with ErrManifestMismatch when the index was built
// by another embedding model, and ErrManifestMissing when the store carries
// no manifest at all.
func CheckCompatibility(ctx context.Context, store DataProcessor, modelID string) (commonModels.IndexManifest, error) {
	manifest, found, err := store.GetManifest(ctx)
	if err != nil {
		return manifest, fmt.Errorf("reading index manifest: %w", err)
	}
	if !found {
		return manifest, ErrManifestMissing
	}
	if manifest.EmbeddingModel != modelID {
		return manifest, fmt.Errorf("%w: index uses %q, server uses %q", ErrManifestMismatch, manifest.EmbeddingModel, modelID)
	}
	return manifest, nil
}
