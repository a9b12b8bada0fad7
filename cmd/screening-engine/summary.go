// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/screening-engine/internal/classify"
	"github.com/pdiddy/screening-engine/pkg/types"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [results-file]",
	Short: "Summarize a classification results file",
	Long: `Summary counts decisions and confidence labels in a results file
(default: the configured output, results.json). Decisions other than
INCLUDE and EXCLUDE are counted as unknown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	path := pipelineCfg.Classification.Output
	if len(args) == 1 {
		path = args[0]
	}
	results, err := classify.LoadResults(path)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	return writeSummary(cmd.OutOrStdout(), classify.Summarize(results), format)
}

func writeSummary(w io.Writer, s types.Summary, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		writeSummaryText(w, s)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: use text, json, or yaml", format)
	}
}

func writeSummaryText(w io.Writer, s types.Summary) {
	labels := make([]string, 0, len(s.ConfidenceDistribution))
	for label := range s.ConfidenceDistribution {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	parts := make([]string, len(labels))
	for i, label := range labels {
		parts[i] = fmt.Sprintf("%s=%d", label, s.ConfidenceDistribution[label])
	}

	fmt.Fprintln(w, "Classification Summary:")
	fmt.Fprintf(w, "Total entries: %d\n", s.Total)
	fmt.Fprintf(w, "Included: %d\n", s.Included)
	fmt.Fprintf(w, "Excluded: %d\n", s.Excluded)
	fmt.Fprintf(w, "Unknown: %d\n", s.Unknown)
	fmt.Fprintf(w, "Confidence distribution: %s\n", strings.Join(parts, " "))
}

func init() {
	summaryCmd.Flags().String("format", "text", "output format: text, json, or yaml")
	rootCmd.AddCommand(summaryCmd)
}
