package classify

import "github.com/pdiddy/screening-engine/pkg/types"

// Summarize counts decisions and confidence labels. Any decision other
// than exactly INCLUDE or EXCLUDE counts as unknown, so the three decision
// buckets always add up to Total, as do the confidence counts.
func Summarize(results []types.ClassificationResult) types.Summary {
	s := types.Summary{
		Total:                  len(results),
		ConfidenceDistribution: make(map[string]int),
	}
	for _, r := range results {
		switch r.Decision {
		case types.DecisionInclude:
			s.Included++
		case types.DecisionExclude:
			s.Excluded++
		default:
			s.Unknown++
		}
		s.ConfidenceDistribution[string(r.Confidence)]++
	}
	return s
}
