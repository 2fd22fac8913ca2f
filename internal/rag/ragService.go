package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/domain/commonModels"
	"github.com/ragdemo/docchat/internal/metrics"
	"github.com/ragdemo/docchat/internal/rag/embedding"
	"github.com/ragdemo/docchat/internal/rag/llm"
	"github.com/ragdemo/docchat/internal/rag/vectorDB"
	"github.com/ragdemo/docchat/pkg/logger_i"
)

var ErrNoDocuments = errors.New("no document found")

// Service is what the HTTP handlers depend on. The store, embedder and model
// client are fixed at construction and shared by all requests.
type Service interface {
	CheckDocuments(ctx context.Context) ([]commonModels.SearchHit, error)
	Retrieve(ctx context.Context, question string) ([]commonModels.SearchHit, error)
	Chat(ctx context.Context, question string) (*llm.Stream, error)
}

type service struct {
	vectorDB    vectorDB.DataProcessor
	llmProvider llm.Provider
	embedder    embedding.Embedder
	topK        int
	logger      *logger_i.Logger
}

func NewService(vector vectorDB.DataProcessor, llm llm.Provider, em embedding.Embedder) Service {
	return &service{
		vectorDB:    vector,
		llmProvider: llm,
		embedder:    em,
		topK:        config.TopK,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) CheckDocuments(ctx context.Context) ([]commonModels.SearchHit, error) {
	return s.search(ctx, config.CheckDocumentsQuery)
}

func (s *service) Retrieve(ctx context.Context, question string) ([]commonModels.SearchHit, error) {
	return s.search(ctx, question)
}

func (s *service) Chat(ctx context.Context, question string) (*llm.Stream, error) {
	log := s.logger.WithTrace(ctx)

	hits, err := s.Retrieve(ctx, question)
	if err != nil {
		if errors.Is(err, ErrNoDocuments) {
			log.Info("No document found for question", "question", question)
		}
		return nil, err
	}

	log.Debug("Documents found", "count", len(hits))
	for _, hit := range hits {
		log.Debug("Document", "source", sourceOf(hit), "preview", Truncate(hit.Content, config.PreviewLength))
	}

	return s.executeLLMStep(ctx, BuildPrompt(question, hits))
}

func (s *service) search(ctx context.Context, query string) ([]commonModels.SearchHit, error) {
	vector, err := s.executeEmbeddingStep(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := s.executeVectorSearchStep(ctx, vector)
	if err != nil {
		return nil, fmt.Errorf("searching vector store: %w", err)
	}
	if len(hits) == 0 {
		return nil, ErrNoDocuments
	}
	return hits, nil
}

func (s *service) executeEmbeddingStep(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, text)
}

func (s *service) executeVectorSearchStep(ctx context.Context, vector []float32) ([]commonModels.SearchHit, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.vectorDB.Search(ctx, vector, s.topK)
}

// measures time to first byte only; the stream itself outlives this call
func (s *service) executeLLMStep(ctx context.Context, prompt string) (*llm.Stream, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Stream(ctx, prompt)
}

// BuildPrompt joins the retrieved contents with blank lines and places them
// with the question in the fixed template.
func BuildPrompt(question string, hits []commonModels.SearchHit) string {
	contents := make([]string, len(hits))
	for i, hit := range hits {
		contents[i] = hit.Content
	}
	return fmt.Sprintf(config.PromptTemplate, strings.Join(contents, "\n\n"), question)
}
