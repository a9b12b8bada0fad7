// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"strings"
	"text/template"

	"github.com/pdiddy/screening-engine/pkg/types"
)

// AbstractNotAvailable replaces a missing abstract in the prompt.
const AbstractNotAvailable = "Abstract not available"

// promptTmpl asks the model for three labeled lines that Parse understands.
var promptTmpl = template.Must(template.New("classification").Parse(`Please classify this research paper based on the inclusion criteria provided.

INCLUSION CRITERIA:
{{.Criteria}}

PAPER DETAILS:
Title: {{.Title}}
Year: {{.Year}}
Abstract: {{.Abstract}}

TASK:
Determine if this paper meets the inclusion criteria. Respond with:
1. Decision: INCLUDE or EXCLUDE
2. Reasoning: Brief explanation of your decision
3. Confidence: High/Medium/Low

Format your response as:
DECISION: [INCLUDE/EXCLUDE]
REASONING: [Your explanation]
CONFIDENCE: [High/Medium/Low]
`))

type promptData struct {
	Criteria string
	Title    string
	Year     string
	Abstract string
}

// BuildPrompt renders the classification prompt for one record. The
// criteria text is embedded verbatim. Same inputs always give the same
// prompt.
func BuildPrompt(r types.Record, criteria string) string {
	data := promptData{
		Criteria: criteria,
		Title:    titleOf(r),
		Year:     yearOf(r),
		Abstract: AbstractNotAvailable,
	}
	if r.HasAbstract() {
		data.Abstract = r.Abstract
	}

	var b strings.Builder
	if err := promptTmpl.Execute(&b, data); err != nil {
		// Only string fields are referenced; execution cannot fail.
		panic("classify: rendering prompt: " + err.Error())
	}
	return b.String()
}

func titleOf(r types.Record) string {
	if t := strings.TrimSpace(r.Title); t != "" {
		return t
	}
	return types.UntitledRecord
}

func yearOf(r types.Record) string {
	if y := strings.TrimSpace(r.Year); y != "" {
		return y
	}
	return types.UnknownYear
}
