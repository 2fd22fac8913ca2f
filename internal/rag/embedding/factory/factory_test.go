package factory

import (
	"context"
	"testing"

	"github.com/ragdemo/docchat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder_Ollama(t *testing.T) {
	em, err := NewEmbedder(context.Background(), config.Settings{
		EmbeddingProvider: "ollama",
		EmbeddingModel:    "all-minilm",
		OllamaURL:         "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama:all-minilm", em.ModelID())
}

func TestNewEmbedder_OpenAICompatible(t *testing.T) {
	em, err := NewEmbedder(context.Background(), config.Settings{
		EmbeddingProvider: "openai",
		EmbeddingModel:    "nomic-embed-text",
		OpenAIBaseURL:     "http://localhost:11434/v1/",
	})
	require.NoError(t, err)
	assert.Equal(t, "openai:nomic-embed-text", em.ModelID())
}

func TestNewEmbedder_Unknown(t *testing.T) {
	_, err := NewEmbedder(context.Background(), config.Settings{EmbeddingProvider: "cohere"})
	assert.ErrorContains(t, err, "cohere")
}
