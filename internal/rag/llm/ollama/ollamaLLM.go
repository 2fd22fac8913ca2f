package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/ragdemo/docchat/internal/config"
	"github.com/ragdemo/docchat/internal/rag/llm"
	"github.com/ragdemo/docchat/pkg/logger_i"
)

var logger = logger_i.NewLogger("llm_ollama")

type llmClient struct {
	httpClient *http.Client
	endpoint   string
	modelName  string
	chunkSize  int
}

// NewOllamaProvider streams completions from {baseURL}/api/generate. The
// response body is relayed raw, so callers see Ollama's NDJSON lines.
func NewOllamaProvider(baseURL string, modelName string, httpClient *http.Client) (llm.Provider, error) {
	endpoint, err := url.JoinPath(baseURL, "/api/generate")
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}
	logger.Debug("Ollama client created", "model", modelName, "endpoint", endpoint)
	return &llmClient{
		httpClient: httpClient,
		endpoint:   endpoint,
		modelName:  modelName,
		chunkSize:  config.StreamChunkLen,
	}, nil
}

func (c *llmClient) Stream(ctx context.Context, prompt string) (*llm.Stream, error) {
	log := logger.WithTrace(ctx)

	stream := true
	body, err := json.Marshal(api.GenerateRequest{
		Model:  c.modelName,
		Prompt: prompt,
		Stream: &stream,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Model service call failed", "error", err)
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
		log.Error("Model service returned an error status", "status", resp.StatusCode)
		return nil, &llm.UpstreamStatusError{StatusCode: resp.StatusCode}
	}

	log.Debug("Streaming generation", "model", c.modelName)
	return llm.NewStream(ctx, resp.Body, c.chunkSize), nil
}
