package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// EmbeddingClient talks to an OpenAI-compatible embeddings endpoint. It
// implements core.Embedder.
type EmbeddingClient struct {
	baseProvider
}

func NewEmbeddingClient(cfg Config) *EmbeddingClient {
	return &EmbeddingClient{
		baseProvider: newBaseProvider(cfg.BaseURL, cfg.APIKey, cfg.Model),
	}
}

func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"model": c.model,
		"input": []string{text},
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/embeddings", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response: %s", string(data))
	}
	return result.Data[0].Embedding, nil
}
