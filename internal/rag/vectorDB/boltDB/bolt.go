package boltDB

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ragdemo/docchat/internal/domain/commonModels"
	"github.com/ragdemo/docchat/internal/rag/vectorDB"
	"github.com/ragdemo/docchat/pkg/logger_i"
	"go.etcd.io/bbolt"
)

const indexFile = "index.db"

var (
	bucketRecords  = []byte("records")
	bucketManifest = []byte("manifest")
	manifestKey    = []byte("manifest")
)

var logger = logger_i.NewLogger("BoltVectorStore")

type record struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Vector   []float32      `json:"vector"`
}

// Store keeps every record in one bbolt file and answers queries with an
// exhaustive cosine scan.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the store inside dir. readOnly requires an existing
// index; callers fall back to a writable open when there is none yet.
func Open(dir string, readOnly bool) (*Store, error) {
	path := filepath.Join(dir, indexFile)
	if readOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("opening vector store: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating vector store directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	if !readOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			if _, err := tx.CreateBucketIfNotExists(bucketRecords); err != nil {
				return err
			}
			_, err := tx.CreateBucketIfNotExists(bucketManifest)
			return err
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	logger.Info("Vector store opened", "path", path, "readOnly", readOnly)
	return &Store{db: db}, nil
}

// OpenForServing prefers a read-only handle. When nothing was indexed yet it
// returns an empty store that never touches dir, so a later indexer run can
// still take the file lock.
func OpenForServing(dir string) (vectorDB.DataProcessor, error) {
	store, err := Open(dir, true)
	if err == nil {
		return store, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	logger.Warn("No index found, serving an empty store", "dir", dir)
	return emptyStore{}, nil
}

var errReadOnly = errors.New("vector store is read-only")

// emptyStore answers for a directory the indexer has not written yet.
type emptyStore struct{}

func (emptyStore) Search(ctx context.Context, vector []float32, k int) ([]commonModels.SearchHit, error) {
	return nil, nil
}

func (emptyStore) Reset(ctx context.Context) error { return errReadOnly }

func (emptyStore) UpsertBatch(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error {
	return errReadOnly
}

func (emptyStore) SaveManifest(ctx context.Context, manifest commonModels.IndexManifest) error {
	return errReadOnly
}

func (emptyStore) GetManifest(ctx context.Context) (commonModels.IndexManifest, bool, error) {
	return commonModels.IndexManifest{}, false, nil
}

func (emptyStore) Close() error { return nil }

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Reset(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketManifest} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) UpsertBatch(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		for i, chunk := range chunks {
			data, err := json.Marshal(record{Content: chunk.Chunk, Metadata: chunk.Metadata, Vector: vectors[i]})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(chunk.ChunkId), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) SaveManifest(ctx context.Context, manifest commonModels.IndexManifest) error {
	data, err := json.Marshal(manifest)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketManifest).Put(manifestKey, data)
	})
}

func (s *Store) GetManifest(ctx context.Context) (commonModels.IndexManifest, bool, error) {
	var manifest commonModels.IndexManifest
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketManifest)
		if b == nil {
			return nil
		}
		data := b.Get(manifestKey)
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &manifest)
	})
	return manifest, found, err
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]commonModels.SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}
	queryNorm := norm(vector)

	var hits []commonModels.SearchHit
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding record: %w", err)
			}
			if len(rec.Vector) != len(vector) {
				return fmt.Errorf("%w: query has %d, record has %d", vectorDB.ErrDimensionMismatch, len(vector), len(rec.Vector))
			}
			hits = append(hits, commonModels.SearchHit{
				Content:  rec.Content,
				Metadata: rec.Metadata,
				Score:    cosine(vector, rec.Vector, queryNorm),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(query []float32, other []float32, queryNorm float64) float32 {
	otherNorm := norm(other)
	if queryNorm == 0 || otherNorm == 0 {
		return 0
	}
	var dot float64
	for i := range query {
		dot += float64(query[i]) * float64(other[i])
	}
	return float32(dot / (queryNorm * otherNorm))
}
