// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/metrics"
	"github.com/tomtom215/surveyguard/internal/models"
)

// ErrMissingSession is returned when Analyze receives no session identity.
var ErrMissingSession = errors.New("session context with session_id is required")

// Engine runs the fraud analyzers concurrently and aggregates their findings.
type Engine struct {
	store        HistoryStore
	analyzers    map[string]Analyzer
	aggregator   *Aggregator
	mu           sync.RWMutex
	metricsStore *EngineMetrics
}

// EngineMetrics tracks fraud engine activity.
type EngineMetrics struct {
	SessionsAnalyzed   int64
	DuplicatesDetected int64
	DegradedLookups    map[string]int64
	ProcessingTimeMs   int64
	LastProcessedAt    time.Time
	mu                 sync.RWMutex
}

// NewEngine creates a fraud engine reading history from store.
func NewEngine(store HistoryStore, config AggregatorConfig) *Engine {
	return &Engine{
		store:      store,
		analyzers:  make(map[string]Analyzer),
		aggregator: NewAggregator(config),
		metricsStore: &EngineMetrics{
			DegradedLookups: make(map[string]int64),
		},
	}
}

// RegisterAnalyzer adds or replaces an analyzer.
func (e *Engine) RegisterAnalyzer(analyzer Analyzer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.analyzers[analyzer.Signal()] = analyzer
	logging.Debug().Str("analyzer", analyzer.Signal()).Msg("registered fraud analyzer")
}

// RegisterDefaults registers the five built-in analyzers against the engine's store.
func (e *Engine) RegisterDefaults() {
	e.RegisterAnalyzer(NewIPReuseAnalyzer(e.store))
	e.RegisterAnalyzer(NewFingerprintAnalyzer(e.store))
	e.RegisterAnalyzer(NewDuplicateAnalyzer(e.store))
	e.RegisterAnalyzer(NewGeolocationAnalyzer(e.store))
	e.RegisterAnalyzer(NewVelocityAnalyzer(e.store))
}

// Analyze scores one session. Store failures degrade individual signals; the
// only errors are a missing session and a canceled context.
func (e *Engine) Analyze(ctx context.Context, session *models.SessionContext) (*models.FraudIndicator, error) {
	if session == nil || session.SessionID == "" {
		return nil, ErrMissingSession
	}

	start := time.Now()
	analyzers := e.enabledAnalyzers()
	findings := make([]Finding, len(analyzers))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range analyzers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			findings[i] = a.Analyze(gctx, session)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecordAnalysis("fraud", time.Since(start), err)
		return nil, fmt.Errorf("fraud analysis: %w", err)
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordAnalysis("fraud", time.Since(start), err)
		return nil, fmt.Errorf("fraud analysis: %w", err)
	}

	ind := e.aggregator.Aggregate(session.SessionID, findings)
	ind.ID = uuid.New().String()

	elapsed := time.Since(start)
	e.updateMetrics(ind, elapsed)
	metrics.RecordAnalysis("fraud", elapsed, nil)
	metrics.RecordClassification("fraud", ind.IsDuplicate, string(ind.RiskLevel))

	if len(ind.DegradedSignals) > 0 {
		logging.Ctx(ctx).Warn().
			Str("session_id", session.SessionID).
			Strs("degraded_signals", ind.DegradedSignals).
			Msg("fraud score computed with degraded signals")
	}

	return ind, nil
}

func (e *Engine) enabledAnalyzers() []Analyzer {
	e.mu.RLock()
	defer e.mu.RUnlock()

	analyzers := make([]Analyzer, 0, len(e.analyzers))
	for _, a := range e.analyzers {
		if a.Enabled() {
			analyzers = append(analyzers, a)
		}
	}
	return analyzers
}

func (e *Engine) updateMetrics(ind *models.FraudIndicator, elapsed time.Duration) {
	e.metricsStore.mu.Lock()
	defer e.metricsStore.mu.Unlock()

	e.metricsStore.SessionsAnalyzed++
	if ind.IsDuplicate {
		e.metricsStore.DuplicatesDetected++
	}
	for _, s := range ind.DegradedSignals {
		e.metricsStore.DegradedLookups[s]++
	}
	e.metricsStore.ProcessingTimeMs = elapsed.Milliseconds()
	e.metricsStore.LastProcessedAt = time.Now()
}

// Metrics returns a copy of the engine metrics.
func (e *Engine) Metrics() EngineMetrics {
	e.metricsStore.mu.RLock()
	defer e.metricsStore.mu.RUnlock()

	degraded := make(map[string]int64, len(e.metricsStore.DegradedLookups))
	for k, v := range e.metricsStore.DegradedLookups {
		degraded[k] = v
	}

	return EngineMetrics{
		SessionsAnalyzed:   e.metricsStore.SessionsAnalyzed,
		DuplicatesDetected: e.metricsStore.DuplicatesDetected,
		DegradedLookups:    degraded,
		ProcessingTimeMs:   e.metricsStore.ProcessingTimeMs,
		LastProcessedAt:    e.metricsStore.LastProcessedAt,
	}
}

// GetAnalyzer returns a registered analyzer by signal name.
func (e *Engine) GetAnalyzer(signal string) (Analyzer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.analyzers[signal]
	return a, ok
}

// ConfigureAnalyzer updates one analyzer's configuration.
func (e *Engine) ConfigureAnalyzer(signal string, config json.RawMessage) error {
	a, ok := e.GetAnalyzer(signal)
	if !ok {
		return fmt.Errorf("analyzer not found: %s", signal)
	}
	return a.Configure(config)
}

// SetAnalyzerEnabled enables or disables one analyzer.
func (e *Engine) SetAnalyzerEnabled(signal string, enabled bool) error {
	a, ok := e.GetAnalyzer(signal)
	if !ok {
		return fmt.Errorf("analyzer not found: %s", signal)
	}
	a.SetEnabled(enabled)
	return nil
}

// ConfigureAggregator updates the fraud weights and thresholds.
func (e *Engine) ConfigureAggregator(config json.RawMessage) error {
	return e.aggregator.Configure(config)
}

// Aggregator returns the engine's aggregator.
func (e *Engine) Aggregator() *Aggregator {
	return e.aggregator
}
