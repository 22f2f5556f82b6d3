// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tomtom215/surveyguard/internal/logging"
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	target := flag.String("target", envOr("LOADGEN_TARGET", "http://localhost:8080"), "SurveyGuard base URL")
	sessions := flag.Int("sessions", 200, "number of sessions to send")
	botRatio := flag.Float64("bot-ratio", 0.25, "fraction of sessions generated as bots (0-1)")
	concurrency := flag.Int("concurrency", 8, "maximum requests in flight")
	seed := flag.Uint64("seed", 42, "generator seed")
	survey := flag.String("survey", "loadgen-survey", "survey id for every session")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "info"), "log level")
	flag.Parse()

	logging.Init(logging.Config{Level: *logLevel, Format: "console"})

	if *botRatio < 0 || *botRatio > 1 {
		logging.Fatal().Float64("bot_ratio", *botRatio).Msg("bot-ratio must be between 0 and 1")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("target", *target).
		Int("sessions", *sessions).
		Float64("bot_ratio", *botRatio).
		Int("concurrency", *concurrency).
		Msg("Starting load run")

	summary, err := Run(ctx, NewClient(*target, *timeout), NewGenerator(*seed, *survey), RunConfig{
		Sessions:    *sessions,
		BotRatio:    *botRatio,
		Concurrency: *concurrency,
	})

	humans := summary.Sent - summary.Bots
	logging.Info().
		Int("sent", summary.Sent).
		Int("failed", summary.Failed).
		Int("bots", summary.Bots).
		Int("bots_caught", summary.Caught).
		Int("humans", humans).
		Int("false_positives", summary.FalsePositives).
		Dur("elapsed", summary.Elapsed).
		Msg("Load run finished")

	if err != nil {
		logging.Error().Err(err).Msg("Load run interrupted")
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
