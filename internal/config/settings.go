package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Settings holds the values that can be overridden from the environment.
// Defaults come from the constants in environmentVariables.go.
type Settings struct {
	ListenAddr string
	CORSOrigin string

	DocsPath           string
	VectorStorePath    string
	VectorStoreBackend string
	QdrantHost         string
	QdrantPort         int
	QdrantCollection   string

	ChunkSize    int
	ChunkOverlap int

	EmbeddingProvider string
	EmbeddingModel    string
	GoogleAPIKey      string
	OpenAIAPIKey      string
	OpenAIBaseURL     string

	OllamaURL string
	LLMModel  string

	EmbeddingCache string
	RedisAddr      string

	RateLimitPerSecond int

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file and then the process environment.
func Load() Settings {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	provider := getEnv("EMBEDDING_PROVIDER", EmbeddingProvider)
	return Settings{
		ListenAddr:         getEnv("LISTEN_ADDR", ServerListenAddr),
		CORSOrigin:         getEnv("CORS_ORIGIN", CORSOrigin),
		DocsPath:           getEnv("DOCS_PATH", DocsPath),
		VectorStorePath:    getEnv("VECTOR_STORE_PATH", VectorStorePath),
		VectorStoreBackend: strings.ToLower(getEnv("VECTOR_STORE_BACKEND", VectorStoreBackend)),
		QdrantHost:         getEnv("QDRANT_HOST", QdrantHost),
		QdrantPort:         getEnvInt("QDRANT_PORT", QdrantGrpcPort),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", QdrantCollection),
		ChunkSize:          getEnvInt("CHUNK_SIZE", ChunkSize),
		ChunkOverlap:       getEnvInt("CHUNK_OVERLAP", ChunkOverlap),
		EmbeddingProvider:  strings.ToLower(provider),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", defaultEmbeddingModel(provider)),
		GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		OllamaURL:          getEnv("OLLAMA_URL", OllamaURL),
		LLMModel:           getEnv("LLM_MODEL", LLMModelName),
		EmbeddingCache:     strings.ToLower(getEnv("EMBEDDING_CACHE", EmbeddingCacheBackend)),
		RedisAddr:          getEnv("REDIS_ADDR", RedisAddr),
		RateLimitPerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", RATE_LIMIT_PER_SECOND),
		LogLevel:           getEnv("LOG_LEVEL", "debug"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}
}

func defaultEmbeddingModel(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini":
		return GoogleEmbeddingName
	case "openai":
		return OpenAIEmbeddingName
	default:
		return OllamaEmbeddingName
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}
