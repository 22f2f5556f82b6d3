// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package main

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/scoring"
)

// RunConfig controls one load run.
type RunConfig struct {
	Sessions    int
	BotRatio    float64
	Concurrency int
}

// Summary tallies a run. A session counts as caught when it is a bot and
// its report is flagged, and as a false positive when it is human and flagged.
type Summary struct {
	Sent           int
	Failed         int
	Bots           int
	Caught         int
	FalsePositives int
	Elapsed        time.Duration
}

// isBot spreads bots evenly: session i is a bot when the running bot count
// falls behind ratio.
func isBot(i int, ratio float64) bool {
	return int(float64(i+1)*ratio) > int(float64(i)*ratio)
}

// Run sends cfg.Sessions sessions with at most cfg.Concurrency in flight.
// Per-session failures are counted, not returned; Run only fails when ctx ends.
func Run(ctx context.Context, client *Client, gen *Generator, cfg RunConfig) (Summary, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	var (
		mu      sync.Mutex
		summary Summary
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for i := 0; i < cfg.Sessions; i++ {
		if gctx.Err() != nil {
			break
		}
		bot := isBot(i, cfg.BotRatio)
		req := gen.Session(i, bot)

		g.Go(func() error {
			report, err := client.Score(gctx, req)

			mu.Lock()
			defer mu.Unlock()
			summary.Sent++
			if bot {
				summary.Bots++
			}
			if err != nil {
				summary.Failed++
				logging.Warn().Err(err).Str("session_id", req.Session.SessionID).Msg("Session scoring failed")
				return nil
			}
			flagged := scoring.Flagged(report)
			switch {
			case bot && flagged:
				summary.Caught++
			case !bot && flagged:
				summary.FalsePositives++
			}
			return nil
		})
	}

	_ = g.Wait()
	summary.Elapsed = time.Since(start)
	return summary, ctx.Err()
}
