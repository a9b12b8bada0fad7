// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the screening-engine CLI.
// Subcommands build and query the embedding index, classify records with
// a local model, and report on the results.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/screening-engine/internal/logging"
	"github.com/pdiddy/screening-engine/internal/metrics"
	"github.com/pdiddy/screening-engine/internal/secrets"
	"github.com/pdiddy/screening-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Per-invocation state, set up in PersistentPreRunE.
var (
	pipelineCfg types.PipelineConfig
	logger      = zap.NewNop()
	recorder    *metrics.Recorder
)

// rootCmd is the base command for the screening-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "screening-engine",
	Short: "Screen bibliographic records for a systematic review",
	Long: `screening-engine screens candidate papers against inclusion criteria.

It offers two complementary tools. The index subcommands embed records
into a local SQLite vector store and answer nearest-neighbor queries. The
classify subcommand asks a locally hosted language model to INCLUDE or
EXCLUDE each record, checkpointing results after every record.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger = l.With(zap.String("run_id", uuid.NewString()), zap.String("command", cmd.Name()))

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Info("loaded secrets", zap.Strings("keys", keys))
		}
		secrets.Apply(&cfg, s)
		pipelineCfg = cfg

		if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
			recorder = metrics.New()
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer func() { _ = logger.Sync() }()
		path, _ := cmd.Flags().GetString("metrics-file")
		return recorder.WriteTextfile(path)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./screening-engine.yaml or ~/.config/screening-engine/screening-engine.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("metrics-file", "", "write Prometheus text-format metrics to this file on exit")

	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
}

func initConfig() {
	// A missing .env file is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("screening-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "screening-engine"))
		}
	}

	viper.SetEnvPrefix("SCREENING_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	// Interrupting a long run stops it between records; the results file
	// keeps everything classified so far.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
