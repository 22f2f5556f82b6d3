// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/surveyguard/internal/models"
)

// VelocityAnalyzer scores how quickly sessions are created from one identity.
type VelocityAnalyzer struct {
	store   HistoryStore
	config  VelocityConfig
	enabled bool
	mu      sync.RWMutex
}

// NewVelocityAnalyzer creates a velocity analyzer.
func NewVelocityAnalyzer(store HistoryStore) *VelocityAnalyzer {
	return &VelocityAnalyzer{
		store:   store,
		config:  DefaultVelocityConfig(),
		enabled: true,
	}
}

// Signal returns the signal name.
func (a *VelocityAnalyzer) Signal() string {
	return SignalVelocity
}

// VelocityRisk maps a count to count/(count+halfSaturation). It is 0 at 0,
// 0.5 at halfSaturation and approaches 1 without reaching it.
func VelocityRisk(count int, halfSaturation float64) float64 {
	if count <= 0 {
		return 0
	}
	c := float64(count)
	return c / (c + halfSaturation)
}

// Analyze takes the maximum of the IP, fingerprint and respondent counts in
// the trailing window.
func (a *VelocityAnalyzer) Analyze(ctx context.Context, session *models.SessionContext) Finding {
	a.mu.RLock()
	config := a.config
	a.mu.RUnlock()

	window := time.Duration(config.WindowMinutes) * time.Minute
	if session == nil {
		return Finding{Signal: SignalVelocity, Window: window}
	}

	timeout := millis(config.LookupTimeoutMs)
	fp := SessionFingerprint(session)

	type countFn func(ctx context.Context) (int, error)
	var queries []countFn
	if session.IPAddress != "" {
		queries = append(queries, func(ctx context.Context) (int, error) {
			return a.store.CountSessionsByIP(ctx, session.IPAddress, session.SessionID, window)
		})
	}
	if fp != "" {
		queries = append(queries, func(ctx context.Context) (int, error) {
			return a.store.CountSessionsByFingerprint(ctx, fp, session.SessionID, window)
		})
	}
	if session.RespondentID != "" {
		queries = append(queries, func(ctx context.Context) (int, error) {
			return a.store.CountSessionsByRespondent(ctx, session.RespondentID, session.SessionID, window)
		})
	}

	counts := make([]int, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			n, err := lookup(gctx, timeout, q)
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return degraded(ctx, SignalVelocity, err)
	}

	peak := 0
	for _, n := range counts {
		if n > peak {
			peak = n
		}
	}

	return Finding{
		Signal: SignalVelocity,
		Risk:   VelocityRisk(peak, config.HalfSaturation),
		Count:  peak,
		Window: window,
	}
}

// Configure updates the analyzer configuration.
func (a *VelocityAnalyzer) Configure(config json.RawMessage) error {
	newConfig := DefaultVelocityConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if newConfig.WindowMinutes < 1 {
		return fmt.Errorf("window_minutes must be at least 1")
	}
	if newConfig.HalfSaturation <= 0 {
		return fmt.Errorf("half_saturation must be positive")
	}
	if newConfig.LookupTimeoutMs <= 0 {
		return fmt.Errorf("lookup_timeout_ms must be positive")
	}

	a.mu.Lock()
	a.config = newConfig
	a.mu.Unlock()

	return nil
}

// Enabled returns whether this analyzer is enabled.
func (a *VelocityAnalyzer) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled enables or disables the analyzer.
func (a *VelocityAnalyzer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Config returns the current configuration.
func (a *VelocityAnalyzer) Config() VelocityConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}
