package googleEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/rag/embedding"
	"github.com/ragdemo/docchat/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// the Gemini API accepts at most 100 contents per embed request
const maxBatch = 100

var logger = logger_i.NewLogger("google_embedding")
var dimension int32 = config.EmbeddingOutputDimensionality

type client struct {
	genAi *genai.Client
	model string
}

func NewGoogleEmbedder(ctx context.Context, modelName string, apikey string) (embedding.Embedder, error) {
	if apikey == "" {
		return nil, errors.New("GOOGLE_API_KEY is not set")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating google embedding client: %w", err)
	}
	logger.Debug("Google Embedding client created", "model", modelName)
	return &client{genAi: c, model: modelName}, nil
}

func (c *client) ModelID() string {
	return "gemini:" + c.model
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	result, err := c.doCall(ctx, genai.Text(query), "RETRIEVAL_QUERY")
	if err != nil {
		logRateLimit(ctx, err)
		return nil, fmt.Errorf("google embed: %w", err)
	}
	if len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, errors.New("google embed: no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	results := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += maxBatch {
		end := min(i+maxBatch, len(chunks))
		res, err := c.doCall(ctx, getContent(chunks[i:end]), "RETRIEVAL_DOCUMENT")
		if err != nil {
			logRateLimit(ctx, err)
			return nil, fmt.Errorf("google batch embed: %w", err)
		}
		if len(res.Embeddings) != end-i {
			return nil, fmt.Errorf("google batch embed: got %d embeddings for %d texts", len(res.Embeddings), end-i)
		}
		for _, r := range res.Embeddings {
			if r == nil {
				return nil, errors.New("google batch embed: empty embedding in response")
			}
			results = append(results, r.Values)
		}
	}
	return results, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content, taskType string) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: taskType})
}

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))
	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

// no retry here, a quota error is just reported louder
func logRateLimit(ctx context.Context, err error) {
	if isRateLimited(err) {
		logger.WithTrace(ctx).Error("Rate limit hit", "error", err)
	}
}

func isRateLimited(err error) bool {
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}
	return false
}
