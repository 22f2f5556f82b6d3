// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/surveyguard/internal/models"
)

// IPReuseAnalyzer scores how many sessions share the session's IP address.
type IPReuseAnalyzer struct {
	store   HistoryStore
	config  IPReuseConfig
	enabled bool
	mu      sync.RWMutex
}

// NewIPReuseAnalyzer creates an IP reuse analyzer.
func NewIPReuseAnalyzer(store HistoryStore) *IPReuseAnalyzer {
	return &IPReuseAnalyzer{
		store:   store,
		config:  DefaultIPReuseConfig(),
		enabled: true,
	}
}

// Signal returns the signal name.
func (a *IPReuseAnalyzer) Signal() string {
	return SignalIPReuse
}

// Analyze returns max(step(total), step(recent)).
func (a *IPReuseAnalyzer) Analyze(ctx context.Context, session *models.SessionContext) Finding {
	a.mu.RLock()
	config := a.config
	a.mu.RUnlock()

	if session == nil || session.IPAddress == "" {
		return Finding{Signal: SignalIPReuse}
	}

	timeout := millis(config.LookupTimeoutMs)
	recentWindow := time.Duration(config.RecentWindowHours) * time.Hour

	var total, recent int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := lookup(gctx, timeout, func(ctx context.Context) (int, error) {
			return a.store.CountSessionsByIP(ctx, session.IPAddress, session.SessionID, 0)
		})
		total = n
		return err
	})
	g.Go(func() error {
		n, err := lookup(gctx, timeout, func(ctx context.Context) (int, error) {
			return a.store.CountSessionsByIP(ctx, session.IPAddress, session.SessionID, recentWindow)
		})
		recent = n
		return err
	})
	if err := g.Wait(); err != nil {
		return degraded(ctx, SignalIPReuse, err)
	}

	return Finding{
		Signal:      SignalIPReuse,
		Risk:        math.Max(stepRisk(config.TotalTiers, total), stepRisk(config.RecentTiers, recent)),
		Count:       total,
		RecentCount: recent,
		Window:      recentWindow,
	}
}

// Configure updates the analyzer configuration.
func (a *IPReuseAnalyzer) Configure(config json.RawMessage) error {
	newConfig := DefaultIPReuseConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateTiers("total_tiers", newConfig.TotalTiers); err != nil {
		return err
	}
	if err := validateTiers("recent_tiers", newConfig.RecentTiers); err != nil {
		return err
	}
	if newConfig.RecentWindowHours < 1 {
		return fmt.Errorf("recent_window_hours must be at least 1")
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
func (a *IPReuseAnalyzer) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled enables or disables the analyzer.
func (a *IPReuseAnalyzer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Config returns the current configuration.
func (a *IPReuseAnalyzer) Config() IPReuseConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}
