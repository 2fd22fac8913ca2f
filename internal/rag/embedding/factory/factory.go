package factory

import (
	"context"
	"fmt"

	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/customHttpClient"
	"github.com/ragdemo/docchat/internal/rag/embedding"
	"github.com/ragdemo/docchat/internal/rag/embedding/googleEmbedding"
	"github.com/ragdemo/docchat/internal/rag/embedding/ollamaEmbedding"
	"github.com/ragdemo/docchat/internal/rag/embedding/openaiEmbedding"
)

// NewEmbedder builds the embedder selected by EMBEDDING_PROVIDER. Both
// binaries go through here so they agree on the model.
func NewEmbedder(ctx context.Context, s config.Settings) (embedding.Embedder, error) {
	switch s.EmbeddingProvider {
	case "", "ollama":
		return ollamaEmbedding.NewOllamaEmbedder(s.OllamaURL, s.EmbeddingModel, customHttpClient.GetClient())
	case "gemini":
		return googleEmbedding.NewGoogleEmbedder(ctx, s.EmbeddingModel, s.GoogleAPIKey)
	case "openai":
		return openaiEmbedding.NewOpenAIEmbedder(s.EmbeddingModel, s.OpenAIAPIKey, s.OpenAIBaseURL, customHttpClient.GetClient())
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", s.EmbeddingProvider)
	}
}
