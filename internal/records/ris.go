// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/screening-engine/pkg/types"
)

// risTagLine matches "TY  - JOUR" style lines. Some exporters emit a
// single space before the dash or nothing after it (e.g. "ER  -").
var risTagLine = regexp.MustCompile(`^([A-Z][A-Z0-9])\s{1,2}-(?:\s(.*))?$`)

// Tags mapped onto Record fields, in priority order.
var (
	risTitleTags    = []string{"TI", "T1"}
	risAbstractTags = []string{"AB", "N2"}
	risYearTags     = []string{"PY", "Y1", "DA"}
)

const maxRISLine = 1 << 20

// LoadRIS parses RIS records from r. A record starts at TY and ends at ER;
// lines that are not tag lines continue the previous value. A trailing
// record without ER is kept.
func LoadRIS(r io.Reader) ([]types.Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRISLine)

	var (
		recs    []types.Record
		current map[string][]string
		lastTag string
		first   = true
	)

	flush := func() {
		if len(current) > 0 {
			recs = append(recs, toRecord(current))
		}
		current = nil
		lastTag = ""
	}

	for sc.Scan() {
		line := sc.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimRight(line, " \t\r")

		m := risTagLine.FindStringSubmatch(line)
		if m == nil {
			if strings.TrimSpace(line) == "" || current == nil || lastTag == "" {
				continue
			}
			vals := current[lastTag]
			vals[len(vals)-1] = strings.TrimSpace(vals[len(vals)-1] + " " + strings.TrimSpace(line))
			continue
		}

		tag, value := m[1], strings.TrimSpace(m[2])
		switch tag {
		case "TY":
			flush()
			current = map[string][]string{}
		case "ER":
			flush()
			continue
		}
		if current == nil {
			current = map[string][]string{}
		}
		current[tag] = append(current[tag], value)
		lastTag = tag
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()

	return recs, nil
}

// toRecord maps RIS tags onto a Record. Tags consumed by Title, Abstract,
// and Year are removed from Fields; everything else is kept verbatim.
func toRecord(tags map[string][]string) types.Record {
	rec := types.Record{Fields: map[string][]string{}}

	rec.Title, _ = firstTag(tags, risTitleTags)
	rec.Abstract, _ = firstTag(tags, risAbstractTags)
	if year, ok := firstTag(tags, risYearTags); ok {
		rec.Year = risYear(year)
	}

	for tag, vals := range tags {
		rec.Fields[tag] = vals
	}
	for _, group := range [][]string{risTitleTags, risAbstractTags, risYearTags} {
		for _, tag := range group {
			delete(rec.Fields, tag)
		}
	}
	if len(rec.Fields) == 0 {
		rec.Fields = nil
	}
	return rec
}

// firstTag returns the first non-empty value among tags, joining repeated
// occurrences of the same tag with a space.
func firstTag(tags map[string][]string, names []string) (string, bool) {
	for _, name := range names {
		vals := tags[name]
		joined := strings.TrimSpace(strings.Join(vals, " "))
		if joined != "" {
			return joined, true
		}
	}
	return "", false
}

// risYear extracts the year portion of a RIS date such as "2019/05/01/".
func risYear(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
