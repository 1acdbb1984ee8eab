package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/codesearch-dev/codesearch/internal/indexerr"
)

// OllamaClient embeds text via a locally running Ollama model server's
// /api/embeddings endpoint.
type OllamaClient struct {
	host       string
	model      string
	dimension  int
	httpClient *http.Client

	mu     sync.RWMutex
	closed bool
}

// NewOllamaClient builds a client targeting host (e.g.
// "http://localhost:11434") for the named model.
func NewOllamaClient(host, model string, dimension int) *OllamaClient {
	return &OllamaClient{
		host:      host,
		model:     model,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *OllamaClient) Dimension() int    { return c.dimension }
func (c *OllamaClient) ModelName() string { return c.model }

func (c *OllamaClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *OllamaClient) Available(ctx context.Context) bool {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return false
	}
	c.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, indexerr.Model("EMBED_CLOSED", "ollama embedding client is closed", nil)
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, indexerr.Model("EMBED_REQUEST_ENCODE", "failed to encode embedding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, indexerr.Model("EMBED_REQUEST_BUILD", "failed to build embedding request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, indexerr.Model("EMBED_REQUEST_SEND", "embedding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, indexerr.Model("EMBED_BAD_STATUS", fmt.Sprintf("embedding provider returned status %d", resp.StatusCode), nil)
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, indexerr.Model("EMBED_RESPONSE_DECODE", "failed to decode embedding response", err)
	}
	if len(parsed.Embedding) != c.dimension {
		return nil, indexerr.Model("EMBED_DIMENSION_MISMATCH",
			fmt.Sprintf("provider returned %d-dim vector, expected %d", len(parsed.Embedding), c.dimension), nil)
	}

	return normalize(parsed.Embedding), nil
}

func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := c.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
