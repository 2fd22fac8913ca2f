package ollamaEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/ragdemo/docchat/internal/rag/embedding"
	"github.com/ragdemo/docchat/pkg/logger_i"
)

var logger = logger_i.NewLogger("ollama_embedding")

type client struct {
	api   *api.Client
	model string
}

// NewOllamaEmbedder talks to the /api/embed endpoint of an Ollama server.
func NewOllamaEmbedder(baseURL string, modelName string, httpClient *http.Client) (embedding.Embedder, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}
	if modelName == "" {
		return nil, errors.New("empty embedding model name")
	}
	logger.Debug("Ollama embedding client created", "model", modelName, "url", baseURL)
	return &client{api: api.NewClient(parsed, httpClient), model: modelName}, nil
}

func (c *client) ModelID() string {
	return "ollama:" + c.model
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	resp, err := c.api.Embed(ctx, &api.EmbedRequest{
		Model: c.model,
		Input: query,
	})
	if err != nil {
		logger.WithTrace(ctx).Error("Error getting embedding from ollama", "error", err)
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, errors.New("ollama embed: no embeddings returned")
	}
	return resp.Embeddings[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	resp, err := c.api.Embed(ctx, &api.EmbedRequest{
		Model: c.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama batch embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama batch embed: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}
