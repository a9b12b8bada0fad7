// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads service credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: embedding-api-key, inference-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/screening-engine/pkg/types"
)

// Key file names recognized by Apply.
const (
	EmbeddingAPIKey = "embedding-api-key"
	InferenceAPIKey = "inference-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills empty API key fields in cfg from loaded secrets. Keys already
// set through configuration take precedence.
func Apply(cfg *types.PipelineConfig, secrets map[string]string) {
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = secrets[EmbeddingAPIKey]
	}
	if cfg.Inference.APIKey == "" {
		cfg.Inference.APIKey = secrets[InferenceAPIKey]
	}
}
