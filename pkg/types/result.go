// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Decision is the screening outcome reported by the model. Values outside
// the three constants are stored verbatim and count as unknown.
type Decision string

const (
	DecisionInclude Decision = "INCLUDE"
	DecisionExclude Decision = "EXCLUDE"
	DecisionUnknown Decision = "UNKNOWN"
)

// Confidence is the model's self-reported certainty.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Placeholders used when a record lacks a field.
const (
	UntitledRecord = "No title"
	UnknownYear    = "Unknown"
)

// ClassificationResult is the structured outcome of screening one record.
// Exactly one result is produced per input record, and results are never
// mutated after creation.
type ClassificationResult struct {
	// Index is the position of the record in the input sequence.
	Index int `json:"index" yaml:"index"`

	Title string `json:"title" yaml:"title"`
	Year  string `json:"year" yaml:"year"`

	Decision   Decision   `json:"decision" yaml:"decision"`
	Reasoning  string     `json:"reasoning" yaml:"reasoning"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`

	// RawResponse is the model's unparsed reply, nil when inference failed.
	RawResponse *string `json:"raw_response" yaml:"raw_response"`

	OriginalRecord Record `json:"original_record" yaml:"original_record"`
}

// Summary aggregates a Result Set. Included+Excluded+Unknown equals Total,
// and the ConfidenceDistribution values sum to Total.
type Summary struct {
	Total                  int            `json:"total_entries" yaml:"total_entries"`
	Included               int            `json:"included" yaml:"included"`
	Excluded               int            `json:"excluded" yaml:"excluded"`
	Unknown                int            `json:"unknown" yaml:"unknown"`
	ConfidenceDistribution map[string]int `json:"confidence_distribution" yaml:"confidence_distribution"`
}
