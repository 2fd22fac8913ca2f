package rag

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/domain/commonModels"
	"github.com/ragdemo/docchat/internal/rag/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	queries []string
	err     error
}

func (f *fakeEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	f.queries = append(f.queries, query)
	return []float32{1, 0}, f.err
}
func (f *fakeEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not used")
}
func (f *fakeEmbedder) ModelID() string { return "fake:embed" }

type fakeStore struct {
	hits []commonModels.SearchHit
	k    int
}

func (f *fakeStore) Search(ctx context.Context, vector []float32, k int) ([]commonModels.SearchHit, error) {
	f.k = k
	return f.hits, nil
}
func (f *fakeStore) Reset(ctx context.Context) error { return nil }
func (f *fakeStore) UpsertBatch(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error {
	return nil
}
func (f *fakeStore) SaveManifest(ctx context.Context, manifest commonModels.IndexManifest) error {
	return nil
}
func (f *fakeStore) GetManifest(ctx context.Context) (commonModels.IndexManifest, bool, error) {
	return commonModels.IndexManifest{}, false, nil
}
func (f *fakeStore) Close() error { return nil }

type fakeProvider struct {
	prompt string
	reply  string
	err    error
}

func (f *fakeProvider) Stream(ctx context.Context, prompt string) (*llm.Stream, error) {
	f.prompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return llm.NewStream(ctx, io.NopCloser(strings.NewReader(f.reply)), 1024), nil
}

func TestBuildPrompt(t *testing.T) {
	hits := []commonModels.SearchHit{{Content: "first excerpt"}, {Content: "second excerpt"}}
	prompt := BuildPrompt("What is grid A?", hits)

	assert.Contains(t, prompt, "first excerpt\n\nsecond excerpt")
	assert.Contains(t, prompt, "What is grid A?")
	assert.Less(t, strings.Index(prompt, "second excerpt"), strings.Index(prompt, "What is grid A?"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 200))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "éé", Truncate("ééé", 2))

	long := strings.Repeat("à", 500)
	assert.Equal(t, 200, len([]rune(Truncate(long, 200))))
}

func TestCheckDocuments_UsesFixedQuery(t *testing.T) {
	em := &fakeEmbedder{}
	store := &fakeStore{hits: []commonModels.SearchHit{{Content: "grid"}}}
	svc := NewService(store, &fakeProvider{}, em)

	hits, err := svc.CheckDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.Equal(t, []string{config.CheckDocumentsQuery}, em.queries)
	assert.Equal(t, config.TopK, store.k)
}

func TestCheckDocuments_EmptyStore(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeProvider{}, &fakeEmbedder{})

	_, err := svc.CheckDocuments(context.Background())
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestChat_NoDocumentsSkipsModel(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(&fakeStore{}, provider, &fakeEmbedder{})

	_, err := svc.Chat(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoDocuments)
	assert.Empty(t, provider.prompt, "model must not be called without context")
}

func TestChat_EmbeddingError(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeProvider{}, &fakeEmbedder{err: errors.New("ollama down")})

	_, err := svc.Chat(context.Background(), "q")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoDocuments)
}

func TestChat_StreamsWithBuiltPrompt(t *testing.T) {
	hits := []commonModels.SearchHit{{Content: "grid A covers level 1", Metadata: map[string]any{commonModels.MetaSource: "grille.pdf"}}}
	provider := &fakeProvider{reply: "Hello world"}
	svc := NewService(&fakeStore{hits: hits}, provider, &fakeEmbedder{})

	stream, err := svc.Chat(context.Background(), "What is grid A?")
	require.NoError(t, err)
	defer stream.Close()

	var out strings.Builder
	for c := range stream.Chunks() {
		require.NoError(t, c.Err)
		out.Write(c.Data)
	}
	assert.Equal(t, "Hello world", out.String())
	assert.Equal(t, BuildPrompt("What is grid A?", hits), provider.prompt)
}

func TestChat_UpstreamStatusPassesThrough(t *testing.T) {
	hits := []commonModels.SearchHit{{Content: "x"}}
	provider := &fakeProvider{err: &llm.UpstreamStatusError{StatusCode: 503}}
	svc := NewService(&fakeStore{hits: hits}, provider, &fakeEmbedder{})

	_, err := svc.Chat(context.Background(), "q")
	assert.ErrorIs(t, err, llm.ErrUpstreamStatus)
}
