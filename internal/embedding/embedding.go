// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding turns record text into vectors through an external
// embedding service. The client makes exactly one attempt per call; retry
// and skip policy belong to the caller.
package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/screening-engine/internal/httputil"
	"github.com/pdiddy/screening-engine/pkg/types"
)

// MissingAbstract stands in for an absent abstract in embedding text, so
// records without one still embed deterministically.
const MissingAbstract = "[abstract not available]"

const defaultTimeout = 60 * time.Second

// Embedder converts text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client calls a llama.cpp-style embedding endpoint:
// POST {base}/embedding {"content": text} -> {"embedding": [...]}.
type Client struct {
	cfg    types.EmbeddingConfig
	client *http.Client
}

type embedRequest struct {
	Content string `json:"content"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewClient returns a client for cfg. A zero timeout uses 60s.
func NewClient(cfg types.EmbeddingConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the embedding URL derived from the configured base.
func (c *Client) Endpoint() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/embedding"
}

// Embed returns the embedding for text. Transport failures and empty
// replies are returned as errors wrapping httputil.ErrTransport.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embedding: empty text")
	}

	var out embedResponse
	if err := httputil.PostJSON(ctx, c.client, c.Endpoint(), c.cfg.HTTPConfig, embedRequest{Content: text}, &out); err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embedding: %w: empty embedding in response", httputil.ErrTransport)
	}
	return out.Embedding, nil
}

// RecordText builds the text embedded for a record: the title, a space,
// then the abstract or MissingAbstract.
func RecordText(r types.Record) string {
	abstract := MissingAbstract
	if r.HasAbstract() {
		abstract = strings.TrimSpace(r.Abstract)
	}
	return strings.TrimSpace(r.Title) + " " + abstract
}
