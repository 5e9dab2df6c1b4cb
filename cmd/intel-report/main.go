package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/grumpiblogged/intelligence/internal/llm"
	"github.com/grumpiblogged/intelligence/internal/pipeline"
	"github.com/grumpiblogged/intelligence/internal/platform/config"
	"github.com/grumpiblogged/intelligence/internal/platform/observability"
	"github.com/grumpiblogged/intelligence/internal/report"
	"github.com/grumpiblogged/intelligence/internal/synthesis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)
	setLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := observability.NewServer(cfg.HealthPort, &logger)

	go func() {
		if err := health.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("health check server error")
		}
	}()

	health.SetReady(true)

	client := llm.New(cfg, &logger)
	engine := synthesis.New(synthesis.Config{
		TrendTopN:         cfg.TrendTopN,
		PredictionTopN:    cfg.PredictionTopN,
		CrossPlatformTopN: cfg.CrossPlatformTopN,
		InfluencerTopN:    cfg.InfluencerTopN,
		TierCriticalAbove: cfg.TierCriticalAbove,
		TierHighAbove:     cfg.TierHighAbove,
		TierMediumAbove:   cfg.TierMediumAbove,
	}, client, &logger)

	run := pipeline.New(cfg, client, engine, &logger)

	result, err := run.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("pipeline stopped")

			return
		}

		logger.Fatal().Err(err).Msg("pipeline error")
	}

	renderer := report.New(cfg.OutputDir, &logger)

	path, err := renderer.Write(result)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to write report")
	}

	logger.Info().
		Str("path", path).
		Str("headline", result.Headline).
		Float64("confidence", result.Confidence).
		Msg("intelligence report generated")
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func setLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(parsed)
}
