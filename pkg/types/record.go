// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the screening-engine pipelines.
//
// Record is produced by the record loaders and consumed by both the
// retrieval and the classification pipelines. ClassificationResult and
// Summary are the persisted outputs of classification.
package types

import "strings"

// Record is one candidate paper's bibliographic metadata. Records are
// immutable once loaded.
type Record struct {
	// Title is the paper title. It may be empty for malformed sources.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract. An empty abstract is a valid state
	// and means the source carried none.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Year is the publication year as it appeared in the source.
	Year string `json:"year,omitempty" yaml:"year,omitempty"`

	// Fields preserves every other source field opaquely, keyed by the
	// source tag (e.g. "AU", "DO" for RIS, "DOI" for CSL).
	Fields map[string][]string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// HasAbstract reports whether the record carries a non-blank abstract.
func (r Record) HasAbstract() bool {
	return strings.TrimSpace(r.Abstract) != ""
}
