package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ragdemo/docchat/internal/api"
	"github.com/ragdemo/docchat/internal/domain/commonModels"
	"github.com/ragdemo/docchat/internal/rag"
	"github.com/ragdemo/docchat/internal/rag/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	hits      []commonModels.SearchHit
	searchErr error
	chatErr   error
	body      io.ReadCloser
	question  string
}

func (f *fakeService) CheckDocuments(ctx context.Context) ([]commonModels.SearchHit, error) {
	return f.hits, f.searchErr
}

func (f *fakeService) Retrieve(ctx context.Context, question string) ([]commonModels.SearchHit, error) {
	return f.hits, f.searchErr
}

func (f *fakeService) Chat(ctx context.Context, question string) (*llm.Stream, error) {
	f.question = question
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return llm.NewStream(ctx, f.body, 1024), nil
}

// brokenBody yields its parts then fails instead of returning EOF.
type brokenBody struct {
	parts []string
}

func (b *brokenBody) Read(p []byte) (int, error) {
	if len(b.parts) == 0 {
		return 0, errors.New("upstream connection reset")
	}
	n := copy(p, b.parts[0])
	b.parts = b.parts[1:]
	return n, nil
}

func (b *brokenBody) Close() error { return nil }

func decodeError(t *testing.T, body io.Reader) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func postChat(h *RequestHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ChatHandler(rec, req)
	return rec
}

func TestCheckDocuments_NotFound(t *testing.T) {
	h := NewRequestHandler(&fakeService{searchErr: rag.ErrNoDocuments})

	rec := httptest.NewRecorder()
	h.CheckDocumentsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/check_documents", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decodeError(t, rec.Body).Error)
}

func TestCheckDocuments_StoreFailure(t *testing.T) {
	h := NewRequestHandler(&fakeService{searchErr: errors.New("bolt closed")})

	rec := httptest.NewRecorder()
	h.CheckDocumentsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/check_documents", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCheckDocuments_Previews(t *testing.T) {
	long := strings.Repeat("é", 450)
	h := NewRequestHandler(&fakeService{hits: []commonModels.SearchHit{
		{Content: long, Metadata: map[string]any{commonModels.MetaSource: "grille.pdf", commonModels.MetaPage: 2}},
		{Content: "short"},
	}})

	rec := httptest.NewRecorder()
	h.CheckDocumentsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/check_documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp api.DocumentsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, 200, len([]rune(resp.Documents[0].Content)))
	assert.Equal(t, "grille.pdf", resp.Documents[0].Metadata[commonModels.MetaSource])
	assert.Equal(t, "short", resp.Documents[1].Content)
	assert.NotNil(t, resp.Documents[1].Metadata)
}

func TestChat_BadRequests(t *testing.T) {
	svc := &fakeService{}
	h := NewRequestHandler(svc)

	for _, body := range []string{`{}`, `{"prompt":""}`, `not json`, `{"prompt":42}`} {
		rec := postChat(h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
		assert.NotEmpty(t, decodeError(t, rec.Body).Error)
	}
	assert.Empty(t, svc.question, "service must not be reached on a bad request")
}

func TestChat_WhitespacePromptIsForwarded(t *testing.T) {
	svc := &fakeService{body: io.NopCloser(strings.NewReader(`{"response":"?"}`))}
	h := NewRequestHandler(svc)

	rec := postChat(h, `{"prompt":"   "}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "   ", svc.question)
}

func TestChat_NoMatchingDocument(t *testing.T) {
	h := NewRequestHandler(&fakeService{chatErr: rag.ErrNoDocuments})

	rec := postChat(h, `{"prompt":"unrelated"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decodeError(t, rec.Body).Error)
}

func TestChat_UpstreamStatus(t *testing.T) {
	h := NewRequestHandler(&fakeService{chatErr: &llm.UpstreamStatusError{StatusCode: http.StatusServiceUnavailable}})

	rec := postChat(h, `{"prompt":"q"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error generating with the model", decodeError(t, rec.Body).Error)
}

func TestChat_UpstreamUnreachable(t *testing.T) {
	h := NewRequestHandler(&fakeService{chatErr: errors.New("dial tcp: connection refused")})

	rec := postChat(h, `{"prompt":"q"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error calling the model: dial tcp: connection refused", decodeError(t, rec.Body).Error)
}

func TestChat_StreamsRawChunks(t *testing.T) {
	svc := &fakeService{body: io.NopCloser(strings.NewReader(`{"response":"Hello"}` + "\n" + `{"response":" world"}` + "\n"))}
	h := NewRequestHandler(svc)

	rec := postChat(h, `{"prompt":"What is grid A?"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"response":"Hello"}`+"\n"+`{"response":" world"}`+"\n", rec.Body.String())
	assert.True(t, rec.Flushed)
	assert.Equal(t, "What is grid A?", svc.question)
}

func TestChat_MidStreamFailureAbortsConnection(t *testing.T) {
	h := NewRequestHandler(&fakeService{body: &brokenBody{parts: []string{"Hello"}}})
	srv := httptest.NewServer(http.HandlerFunc(h.ChatHandler))
	defer srv.Close()

	resp, err := http.Post(srv.URL, "application/json", strings.NewReader(`{"prompt":"q"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	assert.Error(t, err, "client must see a broken stream, not a clean end")
	assert.Equal(t, "Hello", string(data))
}
