package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/domain/commonModels"
	"github.com/ragdemo/docchat/pkg/logger_i"
)

// the manifest lives in a side collection as a single point with a dummy vector
const manifestPointID = "00000000-0000-0000-0000-000000000001"

var logger = logger_i.NewLogger("Qdrant")

type ClientHolder struct {
	QObj       *qdrant.Client
	collection string
}

func NewQdrantStore(ctx context.Context, host string, port int, collection string) (*ClientHolder, error) {
	if collection == "" {
		return nil, errors.New("empty collection name")
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("could not instantiate qdrant client: %w", err)
	}

	healthCtx, cancel := context.WithTimeout(ctx, config.QdrantConnectionTimeout)
	defer cancel()
	if _, err := client.HealthCheck(healthCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("qdrant health check failed: %w", err)
	}

	logger.Info("Qdrant connected", "host", host, "port", port, "collection", collection)
	return &ClientHolder{QObj: client, collection: collection}, nil
}

func (db *ClientHolder) manifestCollection() string {
	return db.collection + "_manifest"
}

func (db *ClientHolder) Close() error {
	logger.Info("Closing Qdrant")
	return db.QObj.Close()
}

func (db *ClientHolder) Search(ctx context.Context, vectorFloat []float32, k int) ([]commonModels.SearchHit, error) {
	loggr := logger.WithTrace(ctx)
	exists, err := db.QObj.CollectionExists(ctx, db.collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		loggr.Warn("Collection does not exist", "collection", db.collection)
		return nil, nil
	}

	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.collection,
		Query:          qdrant.NewQuery(vectorFloat...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant", "error", err)
		return nil, err
	}

	hits := make([]commonModels.SearchHit, 0, len(result))
	for _, hit := range result {
		hits = append(hits, commonModels.SearchHit{
			Content:  hit.Payload["content"].GetStringValue(),
			Metadata: structToMap(hit.Payload["metadata"].GetStructValue()),
			Score:    hit.Score,
		})
	}
	loggr.Debug("Found matches", "count", len(hits))
	return hits, nil
}

// Reset drops both collections; UpsertBatch recreates them with the
// dimension of the first vectors it sees.
func (db *ClientHolder) Reset(ctx context.Context) error {
	for _, name := range []string{db.collection, db.manifestCollection()} {
		exists, err := db.QObj.CollectionExists(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		if err := db.QObj.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("deleting collection %s: %w", name, err)
		}
	}
	return nil
}

func (db *ClientHolder) UpsertBatch(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := db.createCollection(ctx, db.collection, uint64(len(vectors[0]))); err != nil {
		return err
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		payload, err := qdrant.TryValueMap(map[string]any{
			"content":  chunk.Chunk,
			"metadata": chunk.Metadata,
		})
		if err != nil {
			return fmt.Errorf("encoding payload for chunk %s: %w", chunk.ChunkId, err)
		}
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: payload,
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) SaveManifest(ctx context.Context, manifest commonModels.IndexManifest) error {
	if err := db.createCollection(ctx, db.manifestCollection(), 1); err != nil {
		return err
	}
	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.manifestCollection(),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(manifestPointID),
			Vectors: qdrant.NewVectors(0),
			Payload: qdrant.NewValueMap(map[string]any{
				"embedding_model": manifest.EmbeddingModel,
				"dimension":       int64(manifest.Dimension),
				"chunk_count":     int64(manifest.ChunkCount),
				"indexed_at":      manifest.IndexedAt.Format(time.RFC3339),
			}),
		}},
		Wait: qdrant.PtrOf(true),
	})
	return err
}

func (db *ClientHolder) GetManifest(ctx context.Context) (commonModels.IndexManifest, bool, error) {
	var manifest commonModels.IndexManifest
	exists, err := db.QObj.CollectionExists(ctx, db.manifestCollection())
	if err != nil || !exists {
		return manifest, false, err
	}

	points, err := db.QObj.Get(ctx, &qdrant.GetPoints{
		CollectionName: db.manifestCollection(),
		Ids:            []*qdrant.PointId{qdrant.NewID(manifestPointID)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return manifest, false, err
	}
	if len(points) == 0 {
		return manifest, false, nil
	}

	payload := points[0].Payload
	manifest.EmbeddingModel = payload["embedding_model"].GetStringValue()
	manifest.Dimension = int(payload["dimension"].GetIntegerValue())
	manifest.ChunkCount = int(payload["chunk_count"].GetIntegerValue())
	if ts, err := time.Parse(time.RFC3339, payload["indexed_at"].GetStringValue()); err == nil {
		manifest.IndexedAt = ts
	}
	return manifest, true, nil
}

func (db *ClientHolder) createCollection(ctx context.Context, name string, dimension uint64) error {
	exists, err := db.QObj.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func structToMap(s *qdrant.Struct) map[string]any {
	out := map[string]any{}
	if s == nil {
		return out
	}
	for k, v := range s.GetFields() {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		return structToMap(kind.StructValue)
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		list := make([]any, len(items))
		for i, item := range items {
			list[i] = valueToAny(item)
		}
		return list
	default:
		return nil
	}
}
