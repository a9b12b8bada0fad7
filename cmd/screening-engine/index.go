// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/screening-engine/internal/embedding"
	"github.com/pdiddy/screening-engine/internal/records"
	"github.com/pdiddy/screening-engine/internal/retrieval"
	"github.com/pdiddy/screening-engine/internal/vectorstore"
	"github.com/pdiddy/screening-engine/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and query the embedding index",
	Long: `Index manages a SQLite vector store of embedded records. Run init once
to create the schema, build to embed and insert records, and query to find
the records nearest to a free-text query.`,
}

// --- init subcommand ---

var indexInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the vector store schema",
	Long: `Init creates the vec0 table with the configured dimension and distance
metric. Running it against a store that already has a schema is an error
and leaves the store unchanged.`,
	Args: cobra.NoArgs,
	RunE: runIndexInit,
}

func runIndexInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "initialized %s (dimension %d, metric %s)\n",
		store.Path(), store.Dimension(), store.Metric())
	return nil
}

// --- build subcommand ---

var indexBuildCmd = &cobra.Command{
	Use:   "build <records-file>",
	Short: "Embed records and insert them into the vector store",
	Long: `Build loads a RIS or CSL file, embeds each record's title and abstract,
and inserts it into the vector store in file order. Records whose
embedding fails are skipped and counted.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	recs, err := records.Load(args[0])
	if err != nil {
		return err
	}

	ix, closeStore, err := newIndexer(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	summary, err := ix.Ingest(ctx, recs)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d of %d record(s) could not be embedded", summary.Skipped, summary.Total())
	}
	return nil
}

// --- query subcommand ---

var indexQueryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Find the stored records nearest to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndexQuery,
}

func runIndexQuery(cmd *cobra.Command, args []string) error {
	ix, closeStore, err := newIndexer(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	k, _ := cmd.Flags().GetInt("k")
	if k <= 0 {
		k = pipelineCfg.Retrieval.TopK
	}

	matches, err := ix.Query(cmd.Context(), strings.Join(args, " "), k)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	if len(matches) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	fmt.Fprintf(out, "%-4s  %-10s  %s\n", "Rank", "Distance", "Title")
	fmt.Fprintln(out, strings.Repeat("-", 80))
	for i, m := range matches {
		fmt.Fprintf(out, "%-4d  %-10.4f  %s\n", i+1, m.Distance, m.Label)
	}
	fmt.Fprintf(out, "\n%d results\n", len(matches))
	return nil
}

func openStore(cmd *cobra.Command) (*vectorstore.Store, error) {
	store, err := vectorstore.Open(cmd.Context(), pipelineCfg.Store)
	if err != nil {
		return nil, err
	}
	warnPersistedSchema(logger, pipelineCfg.Store, store)
	return store, nil
}

// warnPersistedSchema logs when an existing store's schema overrides the
// configured dimension or metric.
func warnPersistedSchema(log *zap.Logger, cfg types.VectorStoreConfig, store *vectorstore.Store) {
	if cfg.Dimension > 0 && cfg.Dimension != store.Dimension() {
		log.Warn("configured dimension ignored, using the store's persisted dimension",
			zap.String("store", store.Path()),
			zap.Int("configured", cfg.Dimension), zap.Int("persisted", store.Dimension()))
	}
	if cfg.Metric != "" && cfg.Metric != store.Metric() {
		log.Warn("configured metric ignored, using the store's persisted metric",
			zap.String("store", store.Path()),
			zap.String("configured", string(cfg.Metric)), zap.String("persisted", string(store.Metric())))
	}
}

// newIndexer opens the configured store and wires the embedding client,
// cached when a cache size is configured.
func newIndexer(cmd *cobra.Command) (*retrieval.Indexer, func(), error) {
	store, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}

	ecfg := pipelineCfg.Embedding
	var emb embedding.Embedder = embedding.NewClient(ecfg)
	emb = embedding.NewCachedEmbedder(emb, ecfg.CacheSize, ecfg.CacheTTL, logger)

	ix := &retrieval.Indexer{
		Embedder: emb,
		Store:    store,
		Retries:  pipelineCfg.Retrieval.EmbedRetries,
		Logger:   logger,
		Metrics:  recorder,
		Progress: cmd.OutOrStdout(),
	}
	return ix, func() { store.Close() }, nil
}

func init() {
	pf := indexCmd.PersistentFlags()
	pf.String("db", "", "vector store file (default rag.db)")
	pf.Int("dimension", 0, "embedding dimension, fixed at init (default 1024)")
	pf.String("metric", "", "distance metric, fixed at init: l2 or cosine")
	pf.String("embedding-url", "", "embedding service base URL")
	pf.Int("retries", 0, "embedding retries per record before skipping")
	viper.BindPFlag("store.path", pf.Lookup("db"))
	viper.BindPFlag("store.dimension", pf.Lookup("dimension"))
	viper.BindPFlag("store.metric", pf.Lookup("metric"))
	viper.BindPFlag("embedding.url", pf.Lookup("embedding-url"))
	viper.BindPFlag("retrieval.embed_retries", pf.Lookup("retries"))

	indexQueryCmd.Flags().Int("k", 0, "number of neighbors to return (default 5)")
	indexQueryCmd.Flags().Bool("json", false, "output results as JSON")

	indexCmd.AddCommand(indexInitCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexQueryCmd)
	rootCmd.AddCommand(indexCmd)
}
