// Package main provides the beirkit binary: dataset validation,
// retrieval evaluation and the HTTP API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/beirkit/beirkit/internal/bus"
	"github.com/beirkit/beirkit/internal/config"
	"github.com/beirkit/beirkit/internal/dataset"
	"github.com/beirkit/beirkit/internal/encode"
	"github.com/beirkit/beirkit/internal/evaluation"
	"github.com/beirkit/beirkit/internal/pkg/logger"
	"github.com/beirkit/beirkit/internal/qdrant"
	"github.com/beirkit/beirkit/internal/retrieval"
	"github.com/beirkit/beirkit/internal/server"
	"github.com/beirkit/beirkit/internal/validate"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "beirkit",
		Short: "beirkit - BEIR dataset validation and retrieval evaluation",
		Long: `beirkit validates BEIR-style retrieval datasets and evaluates
dense retrieval runs against their relevance judgments.

A dataset directory is expected to contain:
  corpus.jsonl         one JSON document per line
  queries.jsonl        one JSON query per line
  qrels/<split>.tsv    query-id <TAB> doc-id <TAB> relevance`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log := logger.New(level, cfg.Log.Format)

	return cfg, log, nil
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [dataset-dir]",
		Short: "Validate a BEIR-style dataset directory",
		Long: `Validate checks a dataset directory for structural problems:
missing files, malformed JSONL or qrels lines, and qrels entries that
reference unknown query or document ids.

Exit codes:
  0  dataset loads cleanly (warnings allowed)
  1  a file exists but cannot be parsed
  2  expected files are missing`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				fmt.Fprintln(os.Stderr, "ERROR:", err)
				os.Exit(1)
			}

			dir := cfg.Dataset.Dir
			if len(args) > 0 {
				dir = args[0]
			}
			split, _ := cmd.Flags().GetString("split")

			v := validate.New(log)
			os.Exit(v.Run(cmd.Context(), dir, split))
		},
	}

	cmd.Flags().StringP("split", "s", dataset.DefaultSplit, "qrels split to validate")
	return cmd
}

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [dataset-dir]",
		Short: "Run dense retrieval over a dataset and score it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			dir := cfg.Dataset.Dir
			if len(args) > 0 {
				dir = args[0]
			}
			split, _ := cmd.Flags().GetString("split")
			if split == "" {
				split = cfg.Dataset.Split
			}
			if ks, _ := cmd.Flags().GetIntSlice("k"); len(ks) > 0 {
				cfg.Eval.KValues = ks
			}
			if score, _ := cmd.Flags().GetString("score"); score != "" {
				cfg.Eval.ScoreFunction = score
			}
			if topK, _ := cmd.Flags().GetInt("top-k"); topK > 0 {
				cfg.Eval.TopK = topK
			}
			if searcher, _ := cmd.Flags().GetString("searcher"); searcher != "" {
				cfg.Eval.Searcher = searcher
			}

			return runEvaluate(cmd.Context(), cfg, log, dir, split)
		},
	}

	cmd.Flags().StringP("split", "s", "", "qrels split to evaluate")
	cmd.Flags().IntSlice("k", nil, "cutoffs to report metrics at")
	cmd.Flags().String("score", "", "score function: cos_sim or dot")
	cmd.Flags().Int("top-k", 0, "documents to retrieve per query")
	cmd.Flags().String("searcher", "", "search backend: exact or qdrant")
	return cmd
}

func runEvaluate(ctx context.Context, cfg *config.Config, log *logger.Logger, dir, split string) error {
	ds, err := dataset.Load(dir, split)
	if err != nil {
		return err
	}

	b, err := bus.NewBus(cfg.Bus)
	if err != nil {
		return err
	}
	defer b.Close()

	encoder := encode.NewCachedEncoder(
		encode.NewHashingEncoder(cfg.Encoder.Dim, cfg.Encoder.BatchSize),
		encode.NewMemoryCache(cfg.Cache.Size),
	)

	var searcher retrieval.Searcher
	if cfg.Eval.Searcher == "qdrant" {
		qc, err := qdrant.NewClient(qdrant.ClientConfig{
			Host:             cfg.Qdrant.Host,
			Port:             cfg.Qdrant.Port,
			APIKey:           cfg.Qdrant.APIKey,
			UseTLS:           cfg.Qdrant.UseTLS,
			CollectionPrefix: cfg.Qdrant.CollectionPrefix,
		})
		if err != nil {
			return err
		}
		defer qc.Close()
		searcher = qdrant.NewSearcher(qc, encoder, "corpus", cfg.Encoder.BatchSize)
	} else {
		searcher = retrieval.NewExactSearcher(encoder, cfg.Eval.ScoreFunction, cfg.Eval.Workers)
	}

	evaluator := evaluation.NewEvaluator(searcher, cfg.Eval.KValues, log).WithBus(b)

	results, err := evaluator.Retrieve(ctx, ds.Corpus, ds.Queries, cfg.Eval.TopK)
	if err != nil {
		return err
	}

	res, err := evaluator.Evaluate(ctx, ds.Qrels, results)
	if err != nil {
		return err
	}

	fmt.Printf("dataset: %s (split %s)\n", dir, split)
	fmt.Printf("queries evaluated: %d\n\n", len(ds.Qrels.Queries()))
	printSummary("NDCG", res.NDCG)
	printSummary("MAP", res.MAP)
	printSummary("Recall", res.Recall)
	printSummary("P", res.Precision)
	return nil
}

func printSummary(name string, s evaluation.Summary) {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	// Sort by cutoff so output order is stable
	sort.Slice(keys, func(i, j int) bool {
		return metricCutoff(keys[i]) < metricCutoff(keys[j])
	})
	for _, k := range keys {
		fmt.Printf("%-12s %.5f\n", k, s[k])
	}
	fmt.Println()
}

func metricCutoff(key string) int {
	if idx := strings.LastIndex(key, "@"); idx != -1 {
		if n, err := strconv.Atoi(key[idx+1:]); err == nil {
			return n
		}
	}
	return 0
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if port, _ := cmd.Flags().GetInt("port"); cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if host, _ := cmd.Flags().GetString("host"); cmd.Flags().Changed("host") {
				cfg.Host = host
			}

			srv, err := server.New(cfg, version, log)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				log.Info("received signal, shutting down", "signal", sig.String())
				return srv.Stop(context.Background())
			}
		},
	}

	cmd.Flags().Int("port", 8080, "HTTP port")
	cmd.Flags().String("host", "0.0.0.0", "bind address")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("beirkit %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
