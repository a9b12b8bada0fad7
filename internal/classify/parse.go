// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"strings"

	"github.com/pdiddy/screening-engine/pkg/types"
)

// DefaultReasoning is reported when the response carries no REASONING line.
const DefaultReasoning = "could not parse response"

// Classification is the structured part of a model reply.
type Classification struct {
	Decision   types.Decision
	Reasoning  string
	Confidence types.Confidence
}

// DefaultClassification is what Parse returns for empty or marker-free
// input.
func DefaultClassification() Classification {
	return Classification{
		Decision:   types.DecisionUnknown,
		Reasoning:  DefaultReasoning,
		Confidence: types.ConfidenceLow,
	}
}

// label is one production of the reply grammar: a line that starts with
// prefix assigns the rest of that line to a field.
type label struct {
	prefix string
	assign func(c *Classification, value string)
}

var grammar = []label{
	{"DECISION:", func(c *Classification, v string) { c.Decision = types.Decision(v) }},
	{"REASONING:", func(c *Classification, v string) { c.Reasoning = v }},
	{"CONFIDENCE:", func(c *Classification, v string) { c.Confidence = types.Confidence(v) }},
}

// Parse extracts a Classification from a model reply.
//
// Each line is trimmed and matched against the case-sensitive prefixes
// DECISION:, REASONING: and CONFIDENCE:. The trimmed remainder of the line
// becomes the field value, and a later line with the same prefix replaces
// an earlier one. Lines that match no prefix are ignored, so a reasoning
// that continues onto following lines keeps only its first line. Values
// are not checked against the Decision or Confidence vocabularies.
func Parse(response string) Classification {
	c := DefaultClassification()
	if strings.TrimSpace(response) == "" {
		return c
	}
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		for _, l := range grammar {
			if rest, ok := strings.CutPrefix(line, l.prefix); ok {
				l.assign(&c, strings.TrimSpace(rest))
				break
			}
		}
	}
	return c
}
