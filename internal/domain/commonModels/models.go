package commonModels

import "time"

// Document is one unit of text produced by a loader: a whole text or
// markdown file, or a single PDF page.
type Document struct {
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata"`
	ContentType DocType        `json:"contentType"`
}

type DocChunk struct {
	ChunkId     string         `json:"chunk_id"`
	Chunk       string         `json:"content"`
	Metadata    map[string]any `json:"metadata"`
	ContentType DocType        `json:"contentType"`
}

// SearchHit is a stored record returned by a similarity search.
type SearchHit struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float32        `json:"score"`
}

// IndexManifest describes how a vector store was built. The server compares
// EmbeddingModel against its own embedder before serving queries.
type IndexManifest struct {
	EmbeddingModel string    `json:"embedding_model"`
	Dimension      int       `json:"dimension"`
	ChunkCount     int       `json:"chunk_count"`
	IndexedAt      time.Time `json:"indexed_at"`
}

type DocType string

var PDF DocType = "PDF"
var TXT DocType = "TXT"
var MD DocType = "MD"
var ERR DocType = "ERROR"

// metadata keys shared by loaders, stores and the debug endpoint
const (
	MetaSource = "source"
	MetaPage   = "page"
	MetaChunk  = "chunk"
)

// CopyMetadata returns a shallow copy so chunk metadata never aliases the
// parent document's map.
func CopyMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
