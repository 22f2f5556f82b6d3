// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/surveyguard/internal/behavior"
	"github.com/tomtom215/surveyguard/internal/composite"
	"github.com/tomtom215/surveyguard/internal/fraud"
	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/quality"
)

// ConfigSnapshot is the runtime configuration returned by GET /config.
type ConfigSnapshot struct {
	Behavior  BehaviorConfigView   `json:"behavior"`
	Fraud     FraudConfigView      `json:"fraud"`
	Grid      quality.GridConfig   `json:"grid"`
	Timing    quality.TimingConfig `json:"timing"`
	Composite composite.Config     `json:"composite"`
}

// BehaviorConfigView lists the aggregator settings and analyzer states.
type BehaviorConfigView struct {
	Aggregator behavior.AggregatorConfig `json:"aggregator"`
	Analyzers  map[string]bool           `json:"analyzers_enabled"`
}

// FraudConfigView lists the aggregator settings and analyzer states.
type FraudConfigView struct {
	Aggregator fraud.AggregatorConfig `json:"aggregator"`
	Analyzers  map[string]bool        `json:"analyzers_enabled"`
}

// GetConfig returns the live configuration of every stage.
//
// GET /api/v1/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	b := h.engine.Behavior()
	behaviorEnabled := make(map[string]bool, len(behavior.AllMethods))
	for _, m := range behavior.AllMethods {
		if a, ok := b.GetAnalyzer(m); ok {
			behaviorEnabled[string(m)] = a.Enabled()
		}
	}

	f := h.engine.Fraud()
	fraudEnabled := make(map[string]bool, len(fraud.AllSignals))
	for _, s := range fraud.AllSignals {
		if a, ok := f.GetAnalyzer(s); ok {
			fraudEnabled[s] = a.Enabled()
		}
	}

	rw.Success(ConfigSnapshot{
		Behavior:  BehaviorConfigView{Aggregator: b.Aggregator().Config(), Analyzers: behaviorEnabled},
		Fraud:     FraudConfigView{Aggregator: f.Aggregator().Config(), Analyzers: fraudEnabled},
		Grid:      h.engine.Grid().Config(),
		Timing:    h.engine.Timing().Config(),
		Composite: h.engine.Composite().Config(),
	})
}

// ConfigureBehaviorAnalyzer updates one behavioral analyzer.
//
// PUT /api/v1/config/behavior/analyzers/{method}
func (h *Handler) ConfigureBehaviorAnalyzer(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	method := behavior.Method(chi.URLParam(r, "method"))
	if _, ok := h.engine.Behavior().GetAnalyzer(method); !ok {
		rw.NotFound("Unknown behavioral analyzer: " + string(method))
		return
	}

	raw, ok := readRawJSON(rw, r)
	if !ok {
		return
	}
	h.applyConfig(rw, r, "behavior."+string(method), func() error {
		return h.engine.Behavior().ConfigureAnalyzer(method, raw)
	})
}

// SetBehaviorAnalyzerEnabled toggles one behavioral analyzer.
//
// PUT /api/v1/config/behavior/analyzers/{method}/enabled
func (h *Handler) SetBehaviorAnalyzerEnabled(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	method := behavior.Method(chi.URLParam(r, "method"))
	if _, ok := h.engine.Behavior().GetAnalyzer(method); !ok {
		rw.NotFound("Unknown behavioral analyzer: " + string(method))
		return
	}

	var req EnabledRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	h.applyConfig(rw, r, "behavior."+string(method)+".enabled", func() error {
		return h.engine.Behavior().SetAnalyzerEnabled(method, *req.Enabled)
	})
}

// ConfigureBehaviorAggregator updates the behavioral weights and thresholds.
//
// PUT /api/v1/config/behavior/aggregator
func (h *Handler) ConfigureBehaviorAggregator(w http.ResponseWriter, r *http.Request) {
	h.configureRaw(w, r, "behavior.aggregator", h.engine.Behavior().ConfigureAggregator)
}

// ConfigureFraudAnalyzer updates one fraud analyzer.
//
// PUT /api/v1/config/fraud/analyzers/{signal}
func (h *Handler) ConfigureFraudAnalyzer(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	signal := chi.URLParam(r, "signal")
	if _, ok := h.engine.Fraud().GetAnalyzer(signal); !ok {
		rw.NotFound("Unknown fraud analyzer: " + signal)
		return
	}

	raw, ok := readRawJSON(rw, r)
	if !ok {
		return
	}
	h.applyConfig(rw, r, "fraud."+signal, func() error {
		return h.engine.Fraud().ConfigureAnalyzer(signal, raw)
	})
}

// SetFraudAnalyzerEnabled toggles one fraud analyzer.
//
// PUT /api/v1/config/fraud/analyzers/{signal}/enabled
func (h *Handler) SetFraudAnalyzerEnabled(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	signal := chi.URLParam(r, "signal")
	if _, ok := h.engine.Fraud().GetAnalyzer(signal); !ok {
		rw.NotFound("Unknown fraud analyzer: " + signal)
		return
	}

	var req EnabledRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	h.applyConfig(rw, r, "fraud."+signal+".enabled", func() error {
		return h.engine.Fraud().SetAnalyzerEnabled(signal, *req.Enabled)
	})
}

// ConfigureFraudAggregator updates the fraud weights and thresholds.
//
// PUT /api/v1/config/fraud/aggregator
func (h *Handler) ConfigureFraudAggregator(w http.ResponseWriter, r *http.Request) {
	h.configureRaw(w, r, "fraud.aggregator", h.engine.Fraud().ConfigureAggregator)
}

// ConfigureGrid updates the grid detector.
//
// PUT /api/v1/config/quality/grid
func (h *Handler) ConfigureGrid(w http.ResponseWriter, r *http.Request) {
	h.configureRaw(w, r, "quality.grid", h.engine.Grid().Configure)
}

// ConfigureTiming updates the timing detector.
//
// PUT /api/v1/config/quality/timing
func (h *Handler) ConfigureTiming(w http.ResponseWriter, r *http.Request) {
	h.configureRaw(w, r, "quality.timing", h.engine.Timing().Configure)
}

// ConfigureComposite updates the composite weights and thresholds.
//
// PUT /api/v1/config/composite
func (h *Handler) ConfigureComposite(w http.ResponseWriter, r *http.Request) {
	h.configureRaw(w, r, "composite", h.engine.Composite().Configure)
}

func (h *Handler) configureRaw(w http.ResponseWriter, r *http.Request, target string, configure func(json.RawMessage) error) {
	rw := NewResponseWriter(w, r)
	raw, ok := readRawJSON(rw, r)
	if !ok {
		return
	}
	h.applyConfig(rw, r, target, func() error { return configure(raw) })
}

// applyConfig runs apply and reports the outcome. Configure methods only
// fail on invalid input, so every error is a 400.
func (h *Handler) applyConfig(rw *ResponseWriter, r *http.Request, target string, apply func() error) {
	if err := apply(); err != nil {
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeInvalidConfig, err.Error(), map[string]string{"target": target})
		return
	}
	logging.CtxInfo(r.Context()).Str("target", target).Msg("Scoring configuration updated")
	rw.Success(map[string]string{"target": target, "status": "updated"})
}

// EngineStats summarizes engine activity since startup.
type EngineStats struct {
	Behavior BehaviorStats `json:"behavior"`
	Fraud    FraudStats    `json:"fraud"`
}

// BehaviorStats mirrors behavior.EngineMetrics.
type BehaviorStats struct {
	SessionsAnalyzed int64                    `json:"sessions_analyzed"`
	BotsDetected     int64                    `json:"bots_detected"`
	EmptyBatches     int64                    `json:"empty_batches"`
	ProcessingTimeMs int64                    `json:"processing_time_ms"`
	LastProcessedAt  *time.Time               `json:"last_processed_at,omitempty"`
	Analyzers        map[string]AnalyzerStats `json:"analyzers"`
}

// AnalyzerStats mirrors behavior.AnalyzerMetrics.
type AnalyzerStats struct {
	Runs         int64 `json:"runs"`
	Insufficient int64 `json:"insufficient"`
	Flagged      int64 `json:"flagged"`
}

// FraudStats mirrors fraud.EngineMetrics.
type FraudStats struct {
	SessionsAnalyzed   int64            `json:"sessions_analyzed"`
	DuplicatesDetected int64            `json:"duplicates_detected"`
	DegradedLookups    map[string]int64 `json:"degraded_lookups"`
	ProcessingTimeMs   int64            `json:"processing_time_ms"`
	LastProcessedAt    *time.Time       `json:"last_processed_at,omitempty"`
}

// Stats returns engine activity counters.
//
// GET /api/v1/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	bm := h.engine.Behavior().Metrics()
	fm := h.engine.Fraud().Metrics()

	analyzers := make(map[string]AnalyzerStats, len(bm.AnalyzerMetrics))
	for m, am := range bm.AnalyzerMetrics {
		analyzers[string(m)] = AnalyzerStats{Runs: am.Runs, Insufficient: am.Insufficient, Flagged: am.Flagged}
	}

	NewResponseWriter(w, r).Success(EngineStats{
		Behavior: BehaviorStats{
			SessionsAnalyzed: bm.SessionsAnalyzed,
			BotsDetected:     bm.BotsDetected,
			EmptyBatches:     bm.EmptyBatches,
			ProcessingTimeMs: bm.ProcessingTimeMs,
			LastProcessedAt:  optionalTime(bm.LastProcessedAt),
			Analyzers:        analyzers,
		},
		Fraud: FraudStats{
			SessionsAnalyzed:   fm.SessionsAnalyzed,
			DuplicatesDetected: fm.DuplicatesDetected,
			DegradedLookups:    fm.DegradedLookups,
			ProcessingTimeMs:   fm.ProcessingTimeMs,
			LastProcessedAt:    optionalTime(fm.LastProcessedAt),
		},
	})
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
