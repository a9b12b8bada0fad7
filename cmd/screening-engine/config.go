package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/screening-engine/internal/classify"
	"github.com/pdiddy/screening-engine/internal/inference"
	"github.com/pdiddy/screening-engine/internal/retrieval"
	"github.com/pdiddy/screening-engine/internal/vectorstore"
	"github.com/pdiddy/screening-engine/pkg/types"
)

const userAgent = "screening-engine/0.1"

// setDefaults registers every configuration key so environment variables
// reach keys that no config file mentions.
func setDefaults(v *viper.Viper) {
	v.SetDefault("embedding.url", "http://localhost:8080")
	v.SetDefault("embedding.timeout", "60s")
	v.SetDefault("embedding.user_agent", userAgent)
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.cache_size", 256)
	v.SetDefault("embedding.cache_ttl", "1h")

	v.SetDefault("inference.url", "http://localhost:8080")
	v.SetDefault("inference.timeout", inference.DefaultTimeout.String())
	v.SetDefault("inference.user_agent", userAgent)
	v.SetDefault("inference.api_key", "")
	v.SetDefault("inference.max_tokens", inference.DefaultMaxTokens)
	v.SetDefault("inference.temperature", inference.DefaultTemperature)

	v.SetDefault("store.path", "rag.db")
	v.SetDefault("store.dimension", vectorstore.DefaultDimension)
	v.SetDefault("store.metric", string(types.MetricL2))

	v.SetDefault("retrieval.embed_retries", 0)
	v.SetDefault("retrieval.top_k", retrieval.DefaultTopK)

	v.SetDefault("classification.criteria", "")
	v.SetDefault("classification.criteria_file", "")
	v.SetDefault("classification.delay", "1s")
	v.SetDefault("classification.output", classify.DefaultOutput)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// loadConfig resolves defaults, the config file, environment variables,
// and bound flags into one immutable PipelineConfig.
func loadConfig(v *viper.Viper) (types.PipelineConfig, error) {
	setDefaults(v)

	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}
	return cfg, nil
}

// resolveCriteria returns the inclusion criteria text, reading the
// criteria file when no inline text is configured.
func resolveCriteria(cfg types.ClassificationConfig) (string, error) {
	if strings.TrimSpace(cfg.Criteria) != "" {
		return cfg.Criteria, nil
	}
	if cfg.CriteriaFile == "" {
		return "", fmt.Errorf("inclusion criteria required: set --criteria or --criteria-file")
	}
	data, err := os.ReadFile(cfg.CriteriaFile)
	if err != nil {
		return "", fmt.Errorf("reading criteria file: %w", err)
	}
	criteria := strings.TrimSpace(string(data))
	if criteria == "" {
		return "", fmt.Errorf("criteria file %s is empty", cfg.CriteriaFile)
	}
	return criteria, nil
}
