// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/screening-engine/internal/httputil"
	"github.com/pdiddy/screening-engine/pkg/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewClient(types.EmbeddingConfig{HTTPConfig: types.HTTPConfig{BaseURL: ts.URL + "/", Timeout: 5 * time.Second}})
}

func TestEmbed_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embedding", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "A surgery outcomes", req.Content)
		w.Write([]byte(`{"embedding":[0.5,-1,2.25]}`))
	})

	v, err := c.Embed(context.Background(), "A surgery outcomes")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1, 2.25}, v)
}

func TestEmbed_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"empty embedding", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"embedding":[]}`))
		}},
		{"missing field", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{}`))
		}},
		{"bad json", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`not json`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.Embed(context.Background(), "text")
			require.Error(t, err)
			assert.True(t, errors.Is(err, httputil.ErrTransport), "got %v", err)
		})
	}
}

func TestEmbed_NoInternalRetry(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "busy", http.StatusServiceUnavailable)
	})
	_, err := c.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestEmbed_EmptyText(t *testing.T) {
	c := NewClient(types.EmbeddingConfig{})
	_, err := c.Embed(context.Background(), "  ")
	assert.Error(t, err)
}

func TestRecordText(t *testing.T) {
	assert.Equal(t, "A surgery outcomes", RecordText(types.Record{Title: "A", Abstract: "surgery outcomes"}))
	assert.Equal(t, "B [abstract not available]", RecordText(types.Record{Title: "B"}))
	assert.Equal(t, "C [abstract not available]", RecordText(types.Record{Title: "C", Abstract: "   "}))
}

type countingEmbedder struct {
	calls int
	fail  bool
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("unavailable")
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestCachedEmbedder_HitsAndClones(t *testing.T) {
	next := &countingEmbedder{}
	e := NewCachedEmbedder(next, 8, time.Minute, nil)

	first, err := e.Embed(context.Background(), "query")
	require.NoError(t, err)
	first[0] = 999

	second, err := e.Embed(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, second)
	assert.Equal(t, 1, next.calls)

	second[1] = -1
	third, err := e.Embed(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, third)
	assert.Equal(t, 1, e.(*CachedEmbedder).Len())
}

func TestCachedEmbedder_FailuresNotCached(t *testing.T) {
	next := &countingEmbedder{fail: true}
	e := NewCachedEmbedder(next, 8, time.Minute, nil)

	_, err := e.Embed(context.Background(), "query")
	require.Error(t, err)
	_, err = e.Embed(context.Background(), "query")
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedEmbedder_DisabledReturnsNext(t *testing.T) {
	next := &countingEmbedder{}
	assert.Same(t, next, NewCachedEmbedder(next, 0, time.Minute, nil))
}
