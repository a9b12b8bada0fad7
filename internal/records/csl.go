package records

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/screening-engine/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names follow the CSL-JSON/CSL-YAML schema used by Pandoc
// and reference managers. YAML is a superset of JSON, so one decoder reads
// both. Fields without a struct member land in Extra.
type CSLItem struct {
	ID       string         `yaml:"id"`
	Type     string         `yaml:"type"`
	Title    string         `yaml:"title"`
	Author   []CSLName      `yaml:"author,omitempty"`
	Abstract string         `yaml:"abstract,omitempty"`
	Issued   *CSLDate       `yaml:"issued,omitempty"`
	DOI      string         `yaml:"DOI,omitempty"`
	Extra    map[string]any `yaml:",inline"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts. Parts are
// decoded loosely because exporters disagree on numbers versus strings.
type CSLDate struct {
	DateParts [][]any `yaml:"date-parts"`
	Literal   string  `yaml:"literal,omitempty"`
}

// LoadCSL decodes a CSL-YAML or CSL-JSON list from r.
func LoadCSL(r io.Reader) ([]types.Record, error) {
	var items []CSLItem
	if err := yaml.NewDecoder(r).Decode(&items); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing CSL: %w", err)
	}

	recs := make([]types.Record, len(items))
	for i, item := range items {
		recs[i] = item.toRecord()
	}
	return recs, nil
}

// toRecord converts a CSLItem to a Record, keeping identifiers, authors,
// and scalar extras in Fields.
func (c CSLItem) toRecord() types.Record {
	rec := types.Record{
		Title:    strings.TrimSpace(c.Title),
		Abstract: strings.TrimSpace(c.Abstract),
		Year:     c.Issued.year(),
		Fields:   map[string][]string{},
	}

	if c.ID != "" {
		rec.Fields["id"] = []string{c.ID}
	}
	if c.Type != "" {
		rec.Fields["type"] = []string{c.Type}
	}
	if c.DOI != "" {
		rec.Fields["DOI"] = []string{c.DOI}
	}
	for _, a := range c.Author {
		if name := a.String(); name != "" {
			rec.Fields["author"] = append(rec.Fields["author"], name)
		}
	}

	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if vals := flatten(c.Extra[k]); len(vals) > 0 {
			rec.Fields[k] = vals
		}
	}

	if len(rec.Fields) == 0 {
		rec.Fields = nil
	}
	return rec
}

// String renders the name as "Family, Given", or the literal form.
func (n CSLName) String() string {
	switch {
	case n.Literal != "":
		return n.Literal
	case n.Family != "" && n.Given != "":
		return n.Family + ", " + n.Given
	default:
		return strings.TrimSpace(n.Family + n.Given)
	}
}

func (d *CSLDate) year() string {
	if d == nil {
		return ""
	}
	if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
		return strings.TrimSpace(fmt.Sprint(d.DateParts[0][0]))
	}
	if len(d.Literal) >= 4 {
		return d.Literal[:4]
	}
	return ""
}

// flatten turns scalar and list values into strings. Nested maps are
// skipped; they have no stable textual form.
func flatten(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		var out []string
		for _, e := range t {
			out = append(out, flatten(e)...)
		}
		return out
	case map[string]any:
		return nil
	default:
		return []string{fmt.Sprint(t)}
	}
}
