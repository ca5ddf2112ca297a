package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/corpus"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/embedding"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/indexer"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/setup"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type buildOptions struct {
	root      string
	out       string
	batchSize int
	rate      float64
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed the catalog and write the index snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := buildOptions{}
		opts.root, _ = cmd.Flags().GetString("root")
		opts.out, _ = cmd.Flags().GetString("out")
		opts.batchSize, _ = cmd.Flags().GetInt("batch-size")
		opts.rate, _ = cmd.Flags().GetFloat64("rate")
		if opts.root == "" {
			opts.root = cfg.CorpusRoot
		}
		if opts.out == "" {
			opts.out = cfg.IndexPath
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		embedder, err := setup.NewEmbedder(ctx, cfg)
		if err != nil {
			return err
		}

		logger := log.Logger
		_, err = runBuild(ctx, embedder, opts, &logger)
		return err
	},
}

func init() {
	buildCmd.Flags().String("root", "", "catalog root directory (default: CORPUS_ROOT)")
	buildCmd.Flags().String("out", "", "snapshot output path (default: INDEX_PATH)")
	buildCmd.Flags().Int("batch-size", indexer.DefaultBatchSize, "rows per embedding call")
	buildCmd.Flags().Float64("rate", 0, "embedding calls per second, 0 for unpaced")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(ctx context.Context, embedder embedding.Embedder, opts buildOptions, logger *zerolog.Logger) (indexer.Stats, error) {
	rows, err := corpus.NewLoader(opts.root, logger).Load(ctx)
	if err != nil {
		return indexer.Stats{}, err
	}
	if len(rows) == 0 {
		logger.Warn().Str("root", opts.root).Msg("no standards found, nothing to index")
		return indexer.Stats{}, nil
	}

	builder := indexer.NewBuilder(embedder, indexer.Options{
		BatchSize:         opts.batchSize,
		RequestsPerSecond: opts.rate,
	}, logger)

	stats, err := builder.Build(ctx, rows, opts.out)
	if err != nil {
		return stats, err
	}

	logger.Info().
		Str("out", opts.out).
		Int("rows", stats.Rows).
		Int("batches", stats.Batches).
		Int("dimensions", stats.Dimensions).
		Dur("duration", stats.Duration).
		Msg("index written")
	return stats, nil
}
