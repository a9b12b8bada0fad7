// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package inference sends single-turn prompts to a chat-completions
// endpoint served by a local model. Its only contract is faithful
// transport: options are passed through unmodified and the first choice's
// message content is returned as-is.
package inference

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/screening-engine/internal/httputil"
	"github.com/pdiddy/screening-engine/pkg/types"
)

const (
	// DefaultTimeout allows for slow local generation.
	DefaultTimeout = 40 * time.Minute

	DefaultMaxTokens = 2048

	// DefaultTemperature is the configuration default; the client itself
	// never substitutes it.
	DefaultTemperature = 0.6
)

// Options are generation parameters passed through to the service.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Completer returns the model's reply to a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Client talks to POST {base}/v1/chat/completions.
type Client struct {
	cfg    types.InferenceConfig
	client *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	NPredict    int           `json:"n_predict"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewClient returns a client for cfg. A zero timeout uses DefaultTimeout.
func NewClient(cfg types.InferenceConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// DefaultOptions returns the generation options configured on the client.
// Temperature is taken as configured, zero included.
func (c *Client) DefaultOptions() Options {
	opts := Options{MaxTokens: c.cfg.MaxTokens, Temperature: c.cfg.Temperature}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return opts
}

// Endpoint returns the chat-completions URL derived from the configured base.
func (c *Client) Endpoint() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
}

// Complete sends prompt as a single user message and returns
// choices[0].message.content. Failures wrap httputil.ErrTransport.
func (c *Client) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	req := chatRequest{
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		NPredict:    opts.MaxTokens,
		Temperature: opts.Temperature,
		Stream:      false,
	}

	var resp chatResponse
	if err := httputil.PostJSON(ctx, c.client, c.Endpoint(), c.cfg.HTTPConfig, req, &resp); err != nil {
		return "", fmt.Errorf("inference: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("inference: %w: response has no choices", httputil.ErrTransport)
	}
	return resp.Choices[0].Message.Content, nil
}
