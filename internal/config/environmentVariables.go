package config

import (
	"log/slog"
	"time"
)

const (
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	//rate limiter is off unless RATE_LIMIT_PER_SECOND is set
	RATE_LIMIT_PER_SECOND       = 0
	BURST_RATE_LIMIT_PER_SECOND = 5

	//serverTimeouts
	//no WriteTimeout: a chat stream lives as long as the model generates
	ReadTimeout            = 5 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":8000"
	CORSOrigin       = "http://localhost:5173"

	//documents + vector store
	DocsPath           = "../documents"
	VectorStorePath    = "./vectorstore"
	VectorStoreBackend = "bolt" // bolt | qdrant
	UpsertBatchSize    = 100

	//splitter, ChunkSize 0 keeps one record per loaded document
	ChunkSize    = 0
	ChunkOverlap = 150

	//retrieval
	TopK                = 3
	CheckDocumentsQuery = "GRILLE A"
	PreviewLength       = 200

	PromptTemplate = `
Here are excerpts from documents:
%s

Answer this question precisely, relying on these documents:
%s
`

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = "localhost"
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1
	QdrantCollection        = "documents"

	//embeddings
	EmbeddingProvider   = "ollama" // ollama | gemini | openai
	OllamaEmbeddingName = "all-minilm"
	GoogleEmbeddingName = "gemini-embedding-001"
	OpenAIEmbeddingName = "text-embedding-3-small"

	EmbeddingOutputDimensionality int32 = 768 //only sent to gemini

	//llm
	OllamaURL      = "http://localhost:11434"
	LLMModelName   = "mistral"
	StreamChunkLen = 1024

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//query embedding cache: redis | memory | off
	EmbeddingCacheBackend = "redis"
	redisHost             = "127.0.0.1"
	redisPort             = "6379"
	RedisAddr             = redisHost + ":" + redisPort
	RedisPassword         = ""
	RedisEmbeddingCacheDB = 0
	EmbeddingCacheTTL     = 24 * time.Hour
	EmbeddingCacheMaxKeys = 10000 //memory backend only
	EmbeddingCachePrefix  = "emb:"
)
