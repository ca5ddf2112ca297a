package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/setup"
	applog "github.com/jamiemarshall1919/Lesson-pilot/internal/setup/logger"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/stream"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/stream/redis"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Load env
	envErr := godotenv.Load()

	cfg := setup.LoadConfig()

	// Headless worker logs JSON
	logger := applog.New(cfg.LogLevel, "standards-worker")
	log.Logger = logger
	if envErr != nil {
		log.Warn().Msg("No .env file found")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps, err := setup.Wire(ctx, cfg, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to load dependencies")
	}

	consumerName, _ := os.Hostname()
	redisCfg := redis.NewRedisStreamConfig(
		cfg.RedisAddr,
		cfg.RedisPassword,
		os.Getenv("REQUEST_STREAM"),
		os.Getenv("CONSUMER_GROUP"),
		consumerName,
	)
	redisCfg.IndexBaseURL = cfg.IndexBaseURL

	consumer, err := stream.NewStreamConsumer(ctx, &stream.StreamConfig{
		Provider:    os.Getenv("STREAM_PROVIDER"),
		RedisConfig: redisCfg,
	}, deps.Selector, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stream consumer")
	}

	// Setup consumer
	if err := consumer.Setup(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup consumer")
	}

	// Warm the index so the first request does not pay for the load
	if rows := deps.Store.Index(ctx, cfg.IndexBaseURL); len(rows) == 0 {
		logger.Warn().Msg("Index not loaded yet, requests will need a human choice until it is")
	}

	// Start consumer
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Consumer stopped with error")
		}
	}()

	// Wait for context to be done
	<-ctx.Done()
	logger.Info().Msg("Shutting down...")
	<-done

	if err := consumer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Failed to close stream client")
	}
	log.Info().Msg("Standards worker stopped")
}
