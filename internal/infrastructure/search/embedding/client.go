// Package embedding provides an HTTP client for the text-embedding service
// that backs the compound annotation search.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/OmicsPath-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

const embedPath = "/embed"

// Config holds the embedding service parameters.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client embeds free text by posting to an external embedding service.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	logger  logging.Logger
}

// NewClient creates a new embedding client.
func NewClient(cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeValidation, "BaseURL is required")
	}
	if cfg.Timeout < 0 {
		return nil, errors.New(errors.ErrCodeValidation, "Timeout must be >= 0")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.Named("embedding"),
	}, nil
}

type embedRequest struct {
	Model  string   `json:"model,omitempty"`
	Inputs []string `json:"inputs"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns one vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "texts cannot be empty")
	}

	body, err := json.Marshal(embedRequest{Model: c.model, Inputs: texts})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEmbeddingFailed, "failed to encode embed request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+embedPath, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEmbeddingFailed, "failed to build embed request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEmbeddingFailed, "embedding service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, errors.Newf(errors.ErrCodeEmbeddingFailed,
			"embedding service returned %d: %s", resp.StatusCode, string(snippet))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEmbeddingFailed, "failed to decode embed response")
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, errors.Newf(errors.ErrCodeEmbeddingFailed,
			"expected %d embeddings, got %d", len(texts), len(parsed.Embeddings))
	}

	c.logger.Debug("texts embedded",
		logging.Int("count", len(texts)),
		logging.Duration("took", time.Since(start)))
	return parsed.Embeddings, nil
}
