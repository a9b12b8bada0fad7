// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/screening-engine/pkg/types"
)

// ErrCheckpoint marks a failure to persist the result set. It is fatal to
// a run.
var ErrCheckpoint = errors.New("checkpoint write failed")

// SaveResults writes the whole result set to path as an indented JSON
// array. The data goes to a temporary file in the same directory which is
// then renamed over path, so readers only ever see a complete file.
func SaveResults(path string, results []types.ClassificationResult) error {
	if results == nil {
		results = []types.ClassificationResult{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("%w: encoding results: %v", ErrCheckpoint, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating directory %s: %v", ErrCheckpoint, dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".results-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrCheckpoint, err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(buf.Bytes())
	syncErr := tmpFile.Sync()
	closeErr := tmpFile.Close()
	if err := errors.Join(writeErr, syncErr, closeErr); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing %s: %v", ErrCheckpoint, tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming temp file: %v", ErrCheckpoint, err)
	}
	return nil
}

// LoadResults reads a result set written by SaveResults.
func LoadResults(path string) ([]types.ClassificationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results %s: %w", path, err)
	}
	var results []types.ClassificationResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing results %s: %w", path, err)
	}
	return results, nil
}
