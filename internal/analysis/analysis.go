// Package analysis compares machine screening decisions with a human
// reference list of included papers. Titles are the join key, so both
// sides are normalized before matching.
package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/screening-engine/pkg/types"
)

// Overlap describes how the machine INCLUDE set relates to the reference
// set.
type Overlap struct {
	MachineIncluded int `json:"machine_included" yaml:"machine_included"`
	HumanIncluded   int `json:"human_included" yaml:"human_included"`
	Both            int `json:"both" yaml:"both"`

	// MachineOnly and HumanOnly list titles as they were first seen.
	MachineOnly []string `json:"machine_only,omitempty" yaml:"machine_only,omitempty"`
	HumanOnly   []string `json:"human_only,omitempty" yaml:"human_only,omitempty"`
}

// Recall is the share of reference papers the machine also included.
func (o Overlap) Recall() float64 {
	if o.HumanIncluded == 0 {
		return 0
	}
	return float64(o.Both) / float64(o.HumanIncluded)
}

// Precision is the share of machine inclusions that are in the reference.
func (o Overlap) Precision() float64 {
	if o.MachineIncluded == 0 {
		return 0
	}
	return float64(o.Both) / float64(o.MachineIncluded)
}

// NormalizeTitle lowercases a title, drops punctuation, and collapses
// whitespace.
func NormalizeTitle(title string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			space = true
		}
	}
	return b.String()
}

// LoadReferenceTitles reads titles from a CSV file with a header row. The
// column named "title" (any case) is used, or the first column when there
// is none.
func LoadReferenceTitles(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening reference list: %w", err)
	}
	defer f.Close()
	return ReadReferenceTitles(f)
}

// ReadReferenceTitles is LoadReferenceTitles over a reader.
func ReadReferenceTitles(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading reference header: %w", err)
	}
	col := 0
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), "title") {
			col = i
			break
		}
	}

	var titles []string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading reference list: %w", err)
		}
		if col < len(row) && strings.TrimSpace(row[col]) != "" {
			titles = append(titles, strings.TrimSpace(row[col]))
		}
	}
	return titles, nil
}

// Compare matches the INCLUDE decisions in results against reference
// titles. Duplicate titles on either side count once.
func Compare(results []types.ClassificationResult, reference []string) Overlap {
	machine := uniqueTitles(includedTitles(results))
	human := uniqueTitles(reference)

	var o Overlap
	o.MachineIncluded = len(machine)
	o.HumanIncluded = len(human)

	humanKeys := make(map[string]bool, len(human))
	for _, t := range human {
		humanKeys[t.key] = true
	}
	machineKeys := make(map[string]bool, len(machine))
	for _, t := range machine {
		machineKeys[t.key] = true
		if humanKeys[t.key] {
			o.Both++
		} else {
			o.MachineOnly = append(o.MachineOnly, t.title)
		}
	}
	for _, t := range human {
		if !machineKeys[t.key] {
			o.HumanOnly = append(o.HumanOnly, t.title)
		}
	}
	sort.Strings(o.MachineOnly)
	sort.Strings(o.HumanOnly)
	return o
}

func includedTitles(results []types.ClassificationResult) []string {
	var titles []string
	for _, r := range results {
		if r.Decision == types.DecisionInclude {
			titles = append(titles, r.Title)
		}
	}
	return titles
}

type keyedTitle struct {
	key   string
	title string
}

func uniqueTitles(titles []string) []keyedTitle {
	seen := make(map[string]bool, len(titles))
	var out []keyedTitle
	for _, t := range titles {
		k := NormalizeTitle(t)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, keyedTitle{key: k, title: t})
	}
	return out
}
