package ollamaEmbedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama answers /api/embed with one vector per input, [len(input), 1].
func fakeOllama(t *testing.T, requests *[]api.EmbedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var req api.EmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*requests = append(*requests, req)

		var inputs []string
		switch in := req.Input.(type) {
		case string:
			inputs = []string{in}
		case []any:
			for _, v := range in {
				inputs = append(inputs, v.(string))
			}
		}
		resp := api.EmbedResponse{Model: req.Model}
		for _, in := range inputs {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(len(in)), 1})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEmbedder(t *testing.T) {
	var requests []api.EmbedRequest
	srv := fakeOllama(t, &requests)

	em, err := NewOllamaEmbedder(srv.URL, "all-minilm", srv.Client())
	require.NoError(t, err)
	assert.Equal(t, "ollama:all-minilm", em.ModelID())

	vec, err := em.GetEmbedding(context.Background(), "GRILLE A")
	require.NoError(t, err)
	assert.Equal(t, []float32{8, 1}, vec)

	vectors, err := em.BatchEmbedding(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {3, 1}}, vectors)

	require.Len(t, requests, 2)
	assert.Equal(t, "all-minilm", requests[0].Model)
}

func TestOllamaEmbedder_ModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"all-minilm\" not found, try pulling it first"}`))
	}))
	defer srv.Close()

	em, err := NewOllamaEmbedder(srv.URL, "all-minilm", srv.Client())
	require.NoError(t, err)

	_, err = em.GetEmbedding(context.Background(), "q")
	assert.ErrorContains(t, err, "not found")
}

func TestNewOllamaEmbedder_EmptyModel(t *testing.T) {
	_, err := NewOllamaEmbedder("http://localhost:11434", "", http.DefaultClient)
	assert.Error(t, err)
}
