package analysis

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/screening-engine/pkg/types"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"E-cigarettes and Surgery: A Trial.", "e cigarettes and surgery a trial"},
		{"  Multiple   spaces\tand\nbreaks ", "multiple spaces and breaks"},
		{"COVID-19 (2020)", "covid 19 2020"},
		{"", ""},
		{"...", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTitle(tt.in), tt.in)
	}
}

func TestReadReferenceTitles(t *testing.T) {
	csvData := "\ufeffAuthors,Title,Year\n" +
		"Doe,\"Vaping, smoking and wound healing\",2020\n" +
		"Roe,,2021\n" +
		"Poe,Surgery outcomes,2019\n"
	titles, err := ReadReferenceTitles(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, []string{"Vaping, smoking and wound healing", "Surgery outcomes"}, titles)
}

func TestReadReferenceTitles_FirstColumnFallback(t *testing.T) {
	titles, err := ReadReferenceTitles(strings.NewReader("paper\nOne\nTwo\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, titles)

	titles, err = ReadReferenceTitles(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestLoadReferenceTitles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "included_papers.csv")
	require.NoError(t, os.WriteFile(path, []byte("title\nA\n"), 0o644))
	titles, err := LoadReferenceTitles(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, titles)

	_, err = LoadReferenceTitles(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	results := []types.ClassificationResult{
		{Title: "Surgery Outcomes.", Decision: types.DecisionInclude},
		{Title: "surgery outcomes", Decision: types.DecisionInclude},
		{Title: "Vaping and lungs", Decision: types.DecisionInclude},
		{Title: "Wound healing", Decision: types.DecisionExclude},
		{Title: "Unclear", Decision: "MAYBE"},
	}
	reference := []string{"Surgery outcomes", "Wound healing", "Anaesthesia"}

	o := Compare(results, reference)
	assert.Equal(t, 2, o.MachineIncluded)
	assert.Equal(t, 3, o.HumanIncluded)
	assert.Equal(t, 1, o.Both)
	assert.Equal(t, []string{"Vaping and lungs"}, o.MachineOnly)
	assert.Equal(t, []string{"Anaesthesia", "Wound healing"}, o.HumanOnly)
	assert.InDelta(t, 1.0/3.0, o.Recall(), 1e-9)
	assert.InDelta(t, 0.5, o.Precision(), 1e-9)
}

func TestCompare_Empty(t *testing.T) {
	o := Compare(nil, nil)
	assert.Zero(t, o.Recall())
	assert.Zero(t, o.Precision())
}
