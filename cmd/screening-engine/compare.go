package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/screening-engine/internal/analysis"
	"github.com/pdiddy/screening-engine/internal/classify"
)

var compareCmd = &cobra.Command{
	Use:   "compare <reference-csv>",
	Short: "Compare machine INCLUDE decisions with a human reference list",
	Long: `Compare reads the titles of human-included papers from a CSV file (the
"title" column, or the first column) and reports how many of them the
model also included. Titles are matched case-insensitively with
punctuation ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	resultsPath, _ := cmd.Flags().GetString("results")
	if resultsPath == "" {
		resultsPath = pipelineCfg.Classification.Output
	}
	results, err := classify.LoadResults(resultsPath)
	if err != nil {
		return err
	}
	reference, err := analysis.LoadReferenceTitles(args[0])
	if err != nil {
		return err
	}

	o := analysis.Compare(results, reference)
	out := cmd.OutOrStdout()

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	}

	fmt.Fprintf(out, "Machine included: %d\n", o.MachineIncluded)
	fmt.Fprintf(out, "Human included:   %d\n", o.HumanIncluded)
	fmt.Fprintf(out, "In both:          %d\n", o.Both)
	fmt.Fprintf(out, "Recall:           %.1f%%\n", 100*o.Recall())
	fmt.Fprintf(out, "Precision:        %.1f%%\n", 100*o.Precision())

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		for _, section := range []struct {
			name   string
			titles []string
		}{
			{"Missed by the model", o.HumanOnly},
			{"Included only by the model", o.MachineOnly},
		} {
			fmt.Fprintf(out, "\n%s (%d):\n", section.name, len(section.titles))
			for _, t := range section.titles {
				fmt.Fprintf(out, "  %s\n", strings.TrimSpace(t))
			}
		}
	}
	return nil
}

func init() {
	compareCmd.Flags().String("results", "", "classification results file (default results.json)")
	compareCmd.Flags().Bool("json", false, "output the comparison as JSON")
	compareCmd.Flags().BoolP("verbose", "v", false, "list unmatched titles")
	rootCmd.AddCommand(compareCmd)
}
