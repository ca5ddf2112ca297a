package main

import (
	"fmt"
	"os"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/indexer"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check an index snapshot for round-trip text and vector dimensions",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			path = cfg.IndexPath
		}
		logger := log.Logger
		return runVerify(path, &logger)
	},
}

func init() {
	verifyCmd.Flags().String("out", "", "snapshot path (default: INDEX_PATH)")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(path string, logger *zerolog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	result, err := store.Decode(f)
	if err != nil {
		return fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	violations := indexer.Verify(result.Rows)
	for _, v := range violations {
		logger.Error().Int("row", v.Index).Str("code", v.Code).Msg(v.Reason)
	}

	logger.Info().
		Str("path", path).
		Int("rows", len(result.Rows)).
		Int("skipped", result.Skipped).
		Int("dimensions", result.Dimensions).
		Int("violations", len(violations)).
		Msg("snapshot verified")

	if result.Skipped > 0 || len(violations) > 0 {
		return fmt.Errorf("snapshot %s has %d invalid rows and %d violations", path, result.Skipped, len(violations))
	}
	if len(result.Rows) == 0 {
		return fmt.Errorf("snapshot %s is empty", path)
	}
	return nil
}
