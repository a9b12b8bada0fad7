// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts pipeline work for a single CLI run and exports it
// in the Prometheus text format. A nil *Recorder is valid and records
// nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "screening_engine"

// Recorder owns a private registry so repeated runs in one process, and
// tests, never collide on metric registration.
type Recorder struct {
	registry *prometheus.Registry

	classified        *prometheus.CounterVec
	inferenceDuration prometheus.Histogram
	inferenceFailures prometheus.Counter
	checkpointWrites  prometheus.Counter
	embedDuration     prometheus.Histogram
	embedFailures     prometheus.Counter
	indexed           prometheus.Counter
	skipped           prometheus.Counter
}

// New builds a Recorder with all collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		classified: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_classified_total",
				Help:      "Records classified, by decision and confidence",
			},
			[]string{"decision", "confidence"},
		),
		inferenceDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "inference_duration_seconds",
				Help:      "Inference request latency",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
			},
		),
		inferenceFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inference_failures_total",
				Help:      "Inference requests that returned no usable reply",
			},
		),
		checkpointWrites: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkpoint_writes_total",
				Help:      "Result set checkpoints written",
			},
		),
		embedDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "embedding_duration_seconds",
				Help:      "Record embedding latency during indexing, retries included",
				Buckets:   prometheus.DefBuckets,
			},
		),
		embedFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_failures_total",
				Help:      "Embedding requests that failed after retries",
			},
		),
		indexed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_indexed_total",
				Help:      "Records inserted into the vector store",
			},
		),
		skipped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_skipped_total",
				Help:      "Records skipped because their embedding failed",
			},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveInference records one inference call.
func (r *Recorder) ObserveInference(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.inferenceDuration.Observe(d.Seconds())
	if err != nil {
		r.inferenceFailures.Inc()
	}
}

// ObserveClassification counts a recorded result.
func (r *Recorder) ObserveClassification(decision, confidence string) {
	if r == nil {
		return
	}
	r.classified.WithLabelValues(decision, confidence).Inc()
}

// ObserveCheckpoint counts a successful checkpoint write.
func (r *Recorder) ObserveCheckpoint() {
	if r == nil {
		return
	}
	r.checkpointWrites.Inc()
}

// ObserveEmbedding records one record's embedding attempts during indexing.
// Query embeddings are not observed.
func (r *Recorder) ObserveEmbedding(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.embedDuration.Observe(d.Seconds())
	if err != nil {
		r.embedFailures.Inc()
	}
}

// ObserveIndexed counts an inserted record.
func (r *Recorder) ObserveIndexed() {
	if r == nil {
		return
	}
	r.indexed.Inc()
}

// ObserveSkipped counts a record left out of the index.
func (r *Recorder) ObserveSkipped() {
	if r == nil {
		return
	}
	r.skipped.Inc()
}

// WriteTextfile writes every metric to path in the text exposition format,
// suitable for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
