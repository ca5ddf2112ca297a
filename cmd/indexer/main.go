// Command indexer builds and checks the embedded standards index.
package main

import (
	"os"
	"time"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/setup"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cfg *setup.Config

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Build and verify the embedded curriculum standards index",
	Long: `indexer flattens the curriculum catalog documents into standard rows,
embeds every row through the configured embedding model and writes the
index snapshot that the selection services load at startup.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("No .env file found")
		}
		cfg = setup.LoadConfig()
		if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			log.Logger = log.Logger.Level(lvl)
		}
	},
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
