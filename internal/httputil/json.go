// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/screening-engine/pkg/types"
)

// ErrTransport marks a failure talking to an external service: network
// errors, timeouts, non-2xx statuses, and undecodable replies. Pipelines
// absorb it into the data model instead of aborting.
var ErrTransport = errors.New("transport error")

// maxErrorBody bounds how much of a failed response body is kept in the error.
const maxErrorBody = 512

// PostJSON marshals body, POSTs it to url, and decodes a 2xx JSON reply
// into out. Every failure is wrapped with ErrTransport.
func PostJSON(ctx context.Context, client *http.Client, url string, cfg types.HTTPConfig, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %v", ErrTransport, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: POST %s returned HTTP %d: %s", ErrTransport, url, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response from %s: %v", ErrTransport, url, err)
	}
	return nil
}
