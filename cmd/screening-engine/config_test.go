package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/screening-engine/pkg/types"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SCREENING_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Embedding.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 256, cfg.Embedding.CacheSize)
	assert.Equal(t, 40*time.Minute, cfg.Inference.Timeout)
	assert.Equal(t, 2048, cfg.Inference.MaxTokens)
	assert.Equal(t, 0.6, cfg.Inference.Temperature)
	assert.Equal(t, "rag.db", cfg.Store.Path)
	assert.Equal(t, 1024, cfg.Store.Dimension)
	assert.Equal(t, types.MetricL2, cfg.Store.Metric)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, time.Second, cfg.Classification.Delay)
	assert.Equal(t, "results.json", cfg.Classification.Output)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_EnvAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "screening-engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
inference:
  url: http://gpu-box:8081
  temperature: 0.1
store:
  dimension: 768
  metric: cosine
classification:
  delay: 250ms
`), 0o644))

	t.Setenv("SCREENING_ENGINE_INFERENCE_URL", "http://override:9000")
	t.Setenv("SCREENING_ENGINE_EMBEDDING_API_KEY", "k")

	v := newTestViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "http://override:9000", cfg.Inference.BaseURL)
	assert.Equal(t, 0.1, cfg.Inference.Temperature)
	assert.Equal(t, 768, cfg.Store.Dimension)
	assert.Equal(t, types.MetricCosine, cfg.Store.Metric)
	assert.Equal(t, 250*time.Millisecond, cfg.Classification.Delay)
	assert.Equal(t, "k", cfg.Embedding.APIKey)
}

func TestResolveCriteria(t *testing.T) {
	got, err := resolveCriteria(types.ClassificationConfig{Criteria: "must discuss surgery"})
	require.NoError(t, err)
	assert.Equal(t, "must discuss surgery", got)

	path := filepath.Join(t.TempDir(), "criteria.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n  adults only\n"), 0o644))
	got, err = resolveCriteria(types.ClassificationConfig{CriteriaFile: path})
	require.NoError(t, err)
	assert.Equal(t, "adults only", got)

	_, err = resolveCriteria(types.ClassificationConfig{})
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = resolveCriteria(types.ClassificationConfig{CriteriaFile: empty})
	assert.Error(t, err)
}

func TestWriteSummary(t *testing.T) {
	s := types.Summary{
		Total: 3, Included: 1, Excluded: 1, Unknown: 1,
		ConfidenceDistribution: map[string]int{"Low": 1, "High": 2},
	}

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, s, "text"))
	assert.Contains(t, buf.String(), "Total entries: 3\n")
	assert.Contains(t, buf.String(), "Confidence distribution: High=2 Low=1\n")

	buf.Reset()
	require.NoError(t, writeSummary(&buf, s, "json"))
	assert.Contains(t, buf.String(), `"total_entries": 3`)

	buf.Reset()
	require.NoError(t, writeSummary(&buf, s, "yaml"))
	assert.Contains(t, buf.String(), "total_entries: 3\n")
	assert.Contains(t, buf.String(), "  High: 2\n")

	assert.Error(t, writeSummary(&buf, s, "xml"))
}
