// Package embedding implements the EmbeddingProvider port: a batched HTTP
// call to an OpenAI-compatible embeddings endpoint, with an optional
// Redis-backed cache in front of it.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/guility/relrag/internal/relrag"
)

// Config bundles the remote endpoint's connection details.
type Config struct {
	APIURL     string
	APIKey     string
	APIHeader  string // defaults to "Authorization: Bearer <key>" when empty
	Model      string
	Timeout    time.Duration
}

// Client is an EmbeddingProvider backed by one OpenAI-compatible HTTP
// endpoint. Grounded on internal/embedding/client.go's EmbedText: one JSON
// POST per call, a bounded timeout, and a cardinality check on the decoded
// response before returning.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a Client. httpClient may be nil, in which case
// http.DefaultClient is used.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed implements relrag.EmbeddingProvider. An empty input returns an
// empty output without contacting the remote (§4.C).
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(embedRequest{Model: c.cfg.Model, Input: texts})
	if err != nil {
		return nil, &relrag.ValidationError{Message: fmt.Sprintf("encode embedding request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, &relrag.UpstreamFailureError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIHeader != "" {
		req.Header.Set(c.cfg.APIHeader, c.cfg.APIKey)
	} else if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &relrag.UpstreamFailureError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &relrag.UpstreamFailureError{Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &relrag.UpstreamFailureError{
			Cause: fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var er embedResponse
	if err := json.Unmarshal(respBody, &er); err != nil {
		return nil, &relrag.UpstreamFailureError{Cause: fmt.Errorf("decode embedding response: %w", err)}
	}
	if len(er.Data) != len(texts) {
		return nil, &relrag.UpstreamFailureError{
			Cause: fmt.Errorf("embedding endpoint returned %d vectors for %d inputs", len(er.Data), len(texts)),
		}
	}

	vectors := make([][]float32, len(er.Data))
	for i, d := range er.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// CheckReachability sends a single-element probe request and reports
// whether the endpoint is reachable and well-formed.
func (c *Client) CheckReachability(ctx context.Context) error {
	_, err := c.Embed(ctx, []string{"ping"})
	return err
}

// ProbeDimensions embeds a single whitespace probe string and returns the
// length of the resulting vector, used to validate or infer
// Configuration.EmbeddingDimensions at creation time (§9).
func (c *Client) ProbeDimensions(ctx context.Context) (int, error) {
	vectors, err := c.Embed(ctx, []string{" "})
	if err != nil {
		return 0, err
	}
	if len(vectors) != 1 {
		return 0, &relrag.UpstreamFailureError{Cause: fmt.Errorf("probe returned %d vectors, expected 1", len(vectors))}
	}
	return len(vectors[0]), nil
}
