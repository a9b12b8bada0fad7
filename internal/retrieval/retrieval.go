// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieval connects the embedding client to the vector store:
// Ingest embeds and stores records, Query embeds free text and returns the
// nearest stored records.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/screening-engine/internal/embedding"
	"github.com/pdiddy/screening-engine/internal/httputil"
	"github.com/pdiddy/screening-engine/internal/metrics"
	"github.com/pdiddy/screening-engine/internal/vectorstore"
	"github.com/pdiddy/screening-engine/pkg/types"
)

// DefaultTopK is the number of neighbors returned when k is not given.
const DefaultTopK = 5

// Store is the subset of *vectorstore.Store the pipeline needs.
type Store interface {
	Insert(ctx context.Context, item vectorstore.Item) (int64, error)
	Query(ctx context.Context, v []float32, k int) ([]vectorstore.Match, error)
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Skipped int
}

// Total returns the number of records processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Skipped
}

// HasFailures reports whether any record was left out of the index.
func (s IngestSummary) HasFailures() bool {
	return s.Skipped > 0
}

// Indexer runs the retrieval pipeline sequentially.
type Indexer struct {
	Embedder embedding.Embedder
	Store    Store

	// Retries is how many extra embedding attempts a record gets before it
	// is skipped.
	Retries int

	Logger   *zap.Logger
	Metrics  *metrics.Recorder
	Progress io.Writer
}

func (ix *Indexer) logger() *zap.Logger {
	if ix.Logger == nil {
		return zap.NewNop()
	}
	return ix.Logger
}

func (ix *Indexer) progress() io.Writer {
	if ix.Progress == nil {
		return io.Discard
	}
	return ix.Progress
}

// Ingest embeds each record and inserts it in input order. A record whose
// embedding fails after retries is skipped and the run continues. Store
// errors, including dimension mismatches, are fatal. On cancellation the
// summary so far is returned with ctx.Err().
func (ix *Indexer) Ingest(ctx context.Context, records []types.Record) (IngestSummary, error) {
	var summary IngestSummary
	w := ix.progress()
	log := ix.logger()

	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		label := strings.TrimSpace(r.Title)
		if label == "" {
			label = types.UntitledRecord
		}
		content := embedding.RecordText(r)

		vec, err := ix.embedRecord(ctx, content)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			log.Warn("embedding failed, skipping record",
				zap.Int("index", i), zap.String("title", label), zap.Error(err))
			fmt.Fprintf(w, "skipped %d/%d %s: %v\n", i+1, len(records), label, err)
			summary.Skipped++
			ix.Metrics.ObserveSkipped()
			continue
		}

		id, err := ix.Store.Insert(ctx, vectorstore.Item{Vector: vec, Label: label, Content: content})
		if err != nil {
			return summary, fmt.Errorf("storing record %d (%s): %w", i, label, err)
		}
		summary.Indexed++
		ix.Metrics.ObserveIndexed()
		log.Debug("record indexed", zap.Int("index", i), zap.Int64("rowid", id))
		fmt.Fprintf(w, "indexed %d/%d %s\n", i+1, len(records), label)
	}

	fmt.Fprintf(w, "\nindexed: %d, skipped: %d\n", summary.Indexed, summary.Skipped)
	return summary, nil
}

// embedRecord embeds one record's text and feeds the ingestion metrics.
func (ix *Indexer) embedRecord(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := ix.embed(ctx, text)
	ix.Metrics.ObserveEmbedding(time.Since(start), err)
	return vec, err
}

func (ix *Indexer) embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := httputil.Retry(ctx, ix.Retries, func(ctx context.Context) error {
		v, err := ix.Embedder.Embed(ctx, text)
		if err != nil {
			return err
		}
		vec = v
		return nil
	})
	return vec, err
}

// Query embeds text and returns the k nearest stored records. A failed
// query embedding is returned as an error; there is nothing to skip to.
func (ix *Indexer) Query(ctx context.Context, text string, k int) ([]vectorstore.Match, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("query text is empty")
	}
	if k <= 0 {
		k = DefaultTopK
	}
	vec, err := ix.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	matches, err := ix.Store.Query(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("querying store: %w", err)
	}
	return matches, nil
}
