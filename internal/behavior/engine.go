// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package behavior

import (
	"context"
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

// Engine runs the registered analyzers over a session's events and
// aggregates their signals into a DetectionResult.
type Engine struct {
	analyzers    map[Method]Analyzer
	aggregator   *Aggregator
	mu           sync.RWMutex
	metricsStore *EngineMetrics
}

// EngineMetrics tracks behavioral engine activity.
type EngineMetrics struct {
	SessionsAnalyzed int64
	BotsDetected     int64
	EmptyBatches     int64
	ProcessingTimeMs int64
	LastProcessedAt  time.Time
	AnalyzerMetrics  map[Method]*AnalyzerMetrics
	mu               sync.RWMutex
}

// AnalyzerMetrics tracks one analyzer's activity.
type AnalyzerMetrics struct {
	Runs         int64
	Insufficient int64
	Flagged      int64
}

// NewEngine creates an engine with no analyzers registered.
func NewEngine(config AggregatorConfig) *Engine {
	return &Engine{
		analyzers:  make(map[Method]Analyzer),
		aggregator: NewAggregator(config),
		metricsStore: &EngineMetrics{
			AnalyzerMetrics: make(map[Method]*AnalyzerMetrics),
		},
	}
}

// RegisterAnalyzer adds or replaces an analyzer.
func (e *Engine) RegisterAnalyzer(analyzer Analyzer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	method := analyzer.Method()
	e.analyzers[method] = analyzer

	e.metricsStore.mu.Lock()
	e.metricsStore.AnalyzerMetrics[method] = &AnalyzerMetrics{}
	e.metricsStore.mu.Unlock()

	logging.Debug().Str("analyzer", string(method)).Msg("registered behavior analyzer")
}

// RegisterDefaults registers the five built-in analyzers with default configuration.
func (e *Engine) RegisterDefaults() {
	e.RegisterAnalyzer(NewKeystrokeAnalyzer())
	e.RegisterAnalyzer(NewMouseAnalyzer())
	e.RegisterAnalyzer(NewTimingAnalyzer())
	e.RegisterAnalyzer(NewDeviceAnalyzer())
	e.RegisterAnalyzer(NewNetworkAnalyzer())
}

// Analyze scores one session's interaction events.
// An empty batch returns ErrNoBehaviorData.
func (e *Engine) Analyze(ctx context.Context, sessionID string, events []models.InteractionEvent) (*models.DetectionResult, error) {
	start := time.Now()

	if len(events) == 0 {
		e.metricsStore.mu.Lock()
		e.metricsStore.EmptyBatches++
		e.metricsStore.mu.Unlock()
		metrics.RecordAnalysis("behavior", time.Since(start), ErrNoBehaviorData)
		return nil, ErrNoBehaviorData
	}

	normalized := Normalize(events)

	signals, err := e.Signals(ctx, normalized)
	if err != nil {
		metrics.RecordAnalysis("behavior", time.Since(start), err)
		return nil, err
	}

	agg := e.aggregator.Aggregate(signals)
	elapsed := time.Since(start)

	result := &models.DetectionResult{
		ID:               uuid.New().String(),
		SessionID:        sessionID,
		IsBot:            agg.IsBot,
		ConfidenceScore:  agg.Confidence,
		RiskLevel:        agg.RiskLevel,
		MethodScores:     agg.MethodScores,
		FlaggedPatterns:  agg.FlaggedPatterns,
		Explanation:      agg.Explanation,
		EventCount:       normalized.Len(),
		ProcessingTimeMs: float64(elapsed.Microseconds()) / 1000,
		CreatedAt:        time.Now().UTC(),
	}

	e.updateMetrics(signals, result, elapsed)
	metrics.RecordAnalysis("behavior", elapsed, nil)
	metrics.RecordClassification("behavior", result.IsBot, string(result.RiskLevel))

	if normalized.UnknownCount > 0 {
		logging.Ctx(ctx).Debug().
			Str("session_id", sessionID).
			Int("unknown_events", normalized.UnknownCount).
			Msg("ignored events of unknown type")
	}

	return result, nil
}

// Signals runs every enabled analyzer concurrently over the normalized batch.
// Signals are returned in registration-independent method order.
func (e *Engine) Signals(ctx context.Context, events *NormalizedEvents) ([]Signal, error) {
	analyzers := e.enabledAnalyzers()
	signals := make([]Signal, len(analyzers))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range analyzers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			signals[i] = a.Analyze(events)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("behavior analysis: %w", err)
	}

	return orderSignals(signals), nil
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

func (e *Engine) updateMetrics(signals []Signal, result *models.DetectionResult, elapsed time.Duration) {
	e.metricsStore.mu.Lock()
	defer e.metricsStore.mu.Unlock()

	e.metricsStore.SessionsAnalyzed++
	if result.IsBot {
		e.metricsStore.BotsDetected++
	}
	e.metricsStore.ProcessingTimeMs = elapsed.Milliseconds()
	e.metricsStore.LastProcessedAt = time.Now()

	for _, s := range signals {
		metrics.RecordAnalyzerScore(string(s.Method), s.Score, s.Insufficient)

		am, ok := e.metricsStore.AnalyzerMetrics[s.Method]
		if !ok {
			continue
		}
		am.Runs++
		if s.Insufficient {
			am.Insufficient++
		}
		if len(s.Flags) > 0 {
			am.Flagged++
		}
	}
}

// Metrics returns a copy of the engine metrics.
func (e *Engine) Metrics() EngineMetrics {
	e.metricsStore.mu.RLock()
	defer e.metricsStore.mu.RUnlock()

	analyzerMetrics := make(map[Method]*AnalyzerMetrics, len(e.metricsStore.AnalyzerMetrics))
	for k, v := range e.metricsStore.AnalyzerMetrics {
		am := *v
		analyzerMetrics[k] = &am
	}

	return EngineMetrics{
		SessionsAnalyzed: e.metricsStore.SessionsAnalyzed,
		BotsDetected:     e.metricsStore.BotsDetected,
		EmptyBatches:     e.metricsStore.EmptyBatches,
		ProcessingTimeMs: e.metricsStore.ProcessingTimeMs,
		LastProcessedAt:  e.metricsStore.LastProcessedAt,
		AnalyzerMetrics:  analyzerMetrics,
	}
}

// GetAnalyzer returns a registered analyzer by method.
func (e *Engine) GetAnalyzer(method Method) (Analyzer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.analyzers[method]
	return a, ok
}

// ConfigureAnalyzer updates one analyzer's configuration.
func (e *Engine) ConfigureAnalyzer(method Method, config json.RawMessage) error {
	a, ok := e.GetAnalyzer(method)
	if !ok {
		return fmt.Errorf("analyzer not found: %s", method)
	}
	return a.Configure(config)
}

// SetAnalyzerEnabled enables or disables one analyzer.
func (e *Engine) SetAnalyzerEnabled(method Method, enabled bool) error {
	a, ok := e.GetAnalyzer(method)
	if !ok {
		return fmt.Errorf("analyzer not found: %s", method)
	}
	a.SetEnabled(enabled)
	return nil
}

// ConfigureAggregator updates the aggregation weights and thresholds.
func (e *Engine) ConfigureAggregator(config json.RawMessage) error {
	return e.aggregator.Configure(config)
}

// Aggregator returns the engine's aggregator.
func (e *Engine) Aggregator() *Aggregator {
	return e.aggregator
}
