// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records loads bibliographic files into uniform types.Record values.
// RIS (.ris, .txt) and CSL (.yaml, .yml, .json) sources are supported; the
// format is chosen by file extension.
package records

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/screening-engine/pkg/types"
)

// Load reads the bibliographic file at path and returns its records in
// source order.
func Load(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var recs []types.Record
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ris", ".txt":
		recs, err = LoadRIS(f)
	case ".yaml", ".yml", ".json":
		recs, err = LoadCSL(f)
	default:
		return nil, fmt.Errorf("unsupported bibliographic format %q: use .ris, .yaml, .yml, or .json", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return recs, nil
}
