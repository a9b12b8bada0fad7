package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveInference(time.Second, errors.New("x"))
	r.ObserveClassification("INCLUDE", "High")
	r.ObserveCheckpoint()
	r.ObserveEmbedding(time.Second, nil)
	r.ObserveIndexed()
	r.ObserveSkipped()
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveClassification("INCLUDE", "High")
	r.ObserveClassification("INCLUDE", "High")
	r.ObserveClassification("UNKNOWN", "Low")
	r.ObserveInference(2*time.Second, nil)
	r.ObserveInference(time.Second, errors.New("timeout"))
	r.ObserveCheckpoint()
	r.ObserveIndexed()
	r.ObserveSkipped()
	r.ObserveEmbedding(10*time.Millisecond, errors.New("refused"))

	path := filepath.Join(t.TempDir(), "screening.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `screening_engine_records_classified_total{confidence="High",decision="INCLUDE"} 2`)
	assert.Contains(t, text, `screening_engine_records_classified_total{confidence="Low",decision="UNKNOWN"} 1`)
	assert.Contains(t, text, "screening_engine_inference_failures_total 1")
	assert.Contains(t, text, "screening_engine_inference_duration_seconds_count 2")
	assert.Contains(t, text, "screening_engine_checkpoint_writes_total 1")
	assert.Contains(t, text, "screening_engine_records_indexed_total 1")
	assert.Contains(t, text, "screening_engine_records_skipped_total 1")
	assert.Contains(t, text, "screening_engine_embedding_failures_total 1")
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveIndexed()

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "screening_engine_records_indexed_total" {
			assert.Equal(t, 0.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
