package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ragdemo/docchat/internal/adapter/utils"
	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/domain/commonModels"
	"github.com/ragdemo/docchat/internal/metrics"
	"github.com/ragdemo/docchat/internal/rag/embedding"
	"github.com/ragdemo/docchat/internal/rag/vectorDB"
)

//splitter

func splitTextIntoChunks(text string, limit int, overlap int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	// Separators ordered from "best" to "worst" for semantic meaning
	separators := []string{"\n\n", "\n", ". ", " "}

	splitChar := ""
	for _, s := range separators {
		if strings.Contains(text, s) {
			splitChar = s
			break
		}
	}

	var parts []string
	if splitChar == "" {
		parts = splitRunes(text, limit)
	} else {
		parts = strings.Split(text, splitChar)
	}

	var chunks []string
	var currentChunk strings.Builder

	for _, part := range parts {
		if currentChunk.Len() > 0 && currentChunk.Len()+len(part)+len(splitChar) > limit {
			chunks = append(chunks, currentChunk.String())

			// start the next chunk with the tail of the previous one
			overlapContent := tail(currentChunk.String(), overlap)
			currentChunk.Reset()
			currentChunk.WriteString(overlapContent)
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString(splitChar)
		}
		currentChunk.WriteString(part)
	}

	if strings.TrimSpace(currentChunk.String()) != "" {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}

// tail returns at most n trailing bytes of s without cutting a rune.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}

// splitRunes hard-cuts text with no separator into pieces of at most limit bytes.
func splitRunes(s string, limit int) []string {
	var out []string
	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func GetDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".txt":
		return commonModels.TXT
	case ".md":
		return commonModels.MD
	default:
		return commonModels.ERR
	}
}

func extractText(path string, contentType commonModels.DocType) ([]rawPage, error) {
	loader, ok := loaders[contentType]
	if !ok {
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
	return loader(path)
}

// PrepareChunks splits every document with the given limits. chunkSize 0
// keeps each document whole.
func PrepareChunks(docs []commonModels.Document, chunkSize int, overlap int) []commonModels.DocChunk {
	var allChunks []commonModels.DocChunk

	for _, doc := range docs {
		for i, text := range splitTextIntoChunks(doc.Content, chunkSize, overlap) {
			if strings.TrimSpace(text) == "" {
				continue
			}
			meta := commonModels.CopyMetadata(doc.Metadata)
			meta[commonModels.MetaChunk] = i
			allChunks = append(allChunks, commonModels.DocChunk{
				ChunkId:     utils.GetNewUUID(),
				Chunk:       text,
				Metadata:    meta,
				ContentType: doc.ContentType,
			})
		}
	}

	return allChunks
}

// BatchIngest embeds every chunk in one call, replaces the store content and
// writes the manifest. The store is only touched once embedding succeeded.
func BatchIngest(ctx context.Context, chunks []commonModels.DocChunk, store vectorDB.DataProcessor, embedder embedding.Embedder) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Chunk
	}

	logger.Debug("Starting embedding call", "texts", len(texts))
	start := time.Now()
	vectors, err := embedder.BatchEmbedding(ctx, texts)
	metrics.CaptureExecutionMetrics("batch_embedding", time.Since(start))
	if err != nil {
		return fmt.Errorf("embedding batch failed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding batch failed: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("resetting vector store failed: %w", err)
	}

	batchSize := config.UpsertBatchSize
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		if err := store.UpsertBatch(ctx, chunks[i:end], vectors[i:end]); err != nil {
			return fmt.Errorf("upserting to vector store failed: %w", err)
		}
	}

	dimension := 0
	if len(vectors) > 0 {
		dimension = len(vectors[0])
	}
	manifest := commonModels.IndexManifest{
		EmbeddingModel: embedder.ModelID(),
		Dimension:      dimension,
		ChunkCount:     len(chunks),
		IndexedAt:      time.Now().UTC(),
	}
	if err := store.SaveManifest(ctx, manifest); err != nil {
		return fmt.Errorf("saving index manifest failed: %w", err)
	}
	metrics.SetIndexedChunks(len(chunks))
	return nil
}
