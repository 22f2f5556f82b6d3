// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package scoring

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/surveyguard/internal/behavior"
	"github.com/tomtom215/surveyguard/internal/composite"
	"github.com/tomtom215/surveyguard/internal/config"
	"github.com/tomtom215/surveyguard/internal/fraud"
	"github.com/tomtom215/surveyguard/internal/quality"
)

// NewFromConfig builds an engine with every default analyzer registered and
// the operator-level knobs from cfg applied.
func NewFromConfig(store fraud.HistoryStore, cfg config.ScoringConfig, opts ...Option) (*Engine, error) {
	behaviorCfg := behavior.DefaultAggregatorConfig()
	if cfg.BotThreshold > 0 {
		behaviorCfg.BotThreshold = cfg.BotThreshold
	}
	b := behavior.NewEngine(behaviorCfg)
	b.RegisterDefaults()

	fraudCfg := fraud.DefaultAggregatorConfig()
	if cfg.DuplicateThreshold > 0 {
		fraudCfg.DuplicateThreshold = cfg.DuplicateThreshold
	}
	f := fraud.NewEngine(store, fraudCfg)
	f.RegisterDefaults()

	if cfg.LookupTimeout > 0 {
		raw, err := json.Marshal(map[string]int{"lookup_timeout_ms": int(cfg.LookupTimeout.Milliseconds())})
		if err != nil {
			return nil, err
		}
		for _, signal := range fraud.AllSignals {
			if err := f.ConfigureAnalyzer(signal, raw); err != nil {
				return nil, fmt.Errorf("configure %s lookup timeout: %w", signal, err)
			}
		}
	}

	compositeCfg := composite.DefaultConfig()
	if cfg.CompositeBehavioralWeight > 0 {
		compositeCfg.BehavioralWeight = cfg.CompositeBehavioralWeight
		compositeCfg.QualityWeight = 1 - cfg.CompositeBehavioralWeight
	}
	if cfg.CompositeBotThreshold > 0 {
		compositeCfg.BotThreshold = cfg.CompositeBotThreshold
	}
	if err := compositeCfg.Validate(); err != nil {
		return nil, fmt.Errorf("composite: %w", err)
	}

	gridCfg := quality.DefaultGridConfig()
	if cfg.StraightLineThreshold > 0 {
		gridCfg.StraightLineThreshold = cfg.StraightLineThreshold
	}

	timingCfg := quality.DefaultTimingConfig()
	if cfg.SpeederMs > 0 {
		timingCfg.SpeederMs = cfg.SpeederMs
	}
	if cfg.FlatlinerMs > 0 {
		timingCfg.FlatlinerMs = cfg.FlatlinerMs
	}

	return NewEngine(b, f,
		quality.NewGridDetector(gridCfg),
		quality.NewTimingDetector(timingCfg),
		composite.NewCalculator(compositeCfg),
		opts...,
	), nil
}
