// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/screening-engine/internal/classify"
	"github.com/pdiddy/screening-engine/internal/inference"
	"github.com/pdiddy/screening-engine/internal/records"
	"github.com/pdiddy/screening-engine/pkg/types"
)

// examplesShown is how many results are echoed after a run.
const examplesShown = 3

var classifyCmd = &cobra.Command{
	Use:   "classify <records-file>",
	Short: "Classify records against inclusion criteria with a local model",
	Long: `Classify sends each record to the inference service with the inclusion
criteria and records an INCLUDE, EXCLUDE, or UNKNOWN decision with the
model's reasoning and confidence. Results are written to the output file
after every record. Use --resume to continue an interrupted run from that
file instead of starting over.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ccfg := pipelineCfg.Classification

	criteria, err := resolveCriteria(ccfg)
	if err != nil {
		return err
	}

	recs, err := records.Load(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %d entries from %s\n", len(recs), args[0])

	client := inference.NewClient(pipelineCfg.Inference)
	p := &classify.Pipeline{
		Completer: client,
		Options:   client.DefaultOptions(),
		Criteria:  criteria,
		Output:    ccfg.Output,
		Delay:     ccfg.Delay,
		Logger:    logger.With(zap.String("endpoint", client.Endpoint())),
		Metrics:   recorder,
		Progress:  out,
	}

	var results []types.ClassificationResult
	if resume, _ := cmd.Flags().GetBool("resume"); resume {
		results, err = p.Resume(ctx, recs)
	} else {
		results, err = p.Run(ctx, recs)
	}
	if err != nil {
		return fmt.Errorf("classification stopped after %d of %d entries: %w", len(results), len(recs), err)
	}

	fmt.Fprintf(out, "\nResults written to %s\n\n", p.Output)
	writeSummaryText(out, classify.Summarize(results))

	if len(results) > 0 {
		fmt.Fprintln(out, "\nFirst few results:")
		for i, r := range results {
			if i == examplesShown {
				break
			}
			fmt.Fprintf(out, "\n%d. %s\n", i+1, r.Title)
			fmt.Fprintf(out, "   Decision: %s\n", r.Decision)
			fmt.Fprintf(out, "   Reasoning: %s\n", r.Reasoning)
			fmt.Fprintf(out, "   Confidence: %s\n", r.Confidence)
		}
	}
	return nil
}

func init() {
	f := classifyCmd.Flags()
	f.String("criteria", "", "inclusion criteria text")
	f.String("criteria-file", "", "file containing the inclusion criteria")
	f.String("output", "", "results file, rewritten after every record (default results.json)")
	f.Duration("delay", 0, "minimum spacing between inference requests (default 1s)")
	f.Bool("resume", false, "continue from an existing results file")
	f.String("inference-url", "", "inference service base URL")
	f.Int("max-tokens", 0, "n_predict passed to the model (default 2048)")
	f.Float64("temperature", 0, "sampling temperature (default 0.6)")
	f.Duration("timeout", 0, "inference request timeout (default 40m)")

	viper.BindPFlag("classification.criteria", f.Lookup("criteria"))
	viper.BindPFlag("classification.criteria_file", f.Lookup("criteria-file"))
	viper.BindPFlag("classification.output", f.Lookup("output"))
	viper.BindPFlag("classification.delay", f.Lookup("delay"))
	viper.BindPFlag("inference.url", f.Lookup("inference-url"))
	viper.BindPFlag("inference.max_tokens", f.Lookup("max-tokens"))
	viper.BindPFlag("inference.temperature", f.Lookup("temperature"))
	viper.BindPFlag("inference.timeout", f.Lookup("timeout"))

	rootCmd.AddCommand(classifyCmd)
}
