// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package behavior

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/tomtom215/surveyguard/internal/models"
	"github.com/tomtom215/surveyguard/internal/stats"
)

// Aggregation is the combined verdict over a set of analyzer signals.
type Aggregation struct {
	Confidence      float64
	IsBot           bool
	RiskLevel       models.RiskLevel
	MethodScores    map[string]float64
	FlaggedPatterns map[string][]string
	Explanation     string
}

// Aggregator combines analyzer sub-scores into a confidence score.
// It holds configuration only; no state is carried between sessions.
type Aggregator struct {
	config AggregatorConfig
	mu     sync.RWMutex
}

// NewAggregator creates an aggregator. Invalid configurations fall back to defaults.
func NewAggregator(config AggregatorConfig) *Aggregator {
	if err := validateAggregatorConfig(config); err != nil {
		config = DefaultAggregatorConfig()
	}
	return &Aggregator{config: cloneAggregatorConfig(config)}
}

// Aggregate computes the weighted mean of the signals' scores.
// A method without a configured weight counts with weight 1; a zero weight
// excludes it. With no weighted signals the confidence is NeutralScore.
func (a *Aggregator) Aggregate(signals []Signal) Aggregation {
	a.mu.RLock()
	config := a.config
	a.mu.RUnlock()

	ordered := orderSignals(signals)

	agg := Aggregation{
		MethodScores:    make(map[string]float64, len(ordered)),
		FlaggedPatterns: make(map[string][]string),
	}

	var weighted, totalWeight float64
	for _, s := range ordered {
		score := stats.Clamp01(s.Score)
		agg.MethodScores[string(s.Method)] = score
		if len(s.Flags) > 0 {
			agg.FlaggedPatterns[string(s.Method)] = append([]string(nil), s.Flags...)
		}

		w, ok := config.Weights[s.Method]
		if !ok {
			w = 1
		}
		if w <= 0 {
			continue
		}
		weighted += w * score
		totalWeight += w
	}

	agg.Confidence = NeutralScore
	if totalWeight > 0 {
		agg.Confidence = stats.Clamp01(weighted / totalWeight)
	}
	agg.IsBot = agg.Confidence > config.BotThreshold
	agg.RiskLevel = config.RiskThresholds.Classify(agg.Confidence)
	agg.Explanation = explain(agg, ordered)

	return agg
}

// orderSignals returns signals in AllMethods order, followed by any
// other methods sorted by name.
func orderSignals(signals []Signal) []Signal {
	rank := make(map[Method]int, len(AllMethods))
	for i, m := range AllMethods {
		rank[m] = i
	}
	out := append([]Signal(nil), signals...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i].Method]
		rj, jok := rank[out[j].Method]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i].Method < out[j].Method
		}
	})
	return out
}

func explain(agg Aggregation, ordered []Signal) string {
	var b strings.Builder
	verdict := "likely human"
	if agg.IsBot {
		verdict = "likely bot"
	}
	fmt.Fprintf(&b, "%s (confidence %.2f, risk %s)", verdict, agg.Confidence, agg.RiskLevel)

	var parts []string
	var insufficient []string
	for _, s := range ordered {
		if s.Insufficient {
			insufficient = append(insufficient, string(s.Method))
			continue
		}
		if len(s.Flags) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", s.Method, strings.Join(s.Flags, ", ")))
		}
	}
	if len(parts) > 0 {
		b.WriteString("; flagged ")
		b.WriteString(strings.Join(parts, "; "))
	} else {
		b.WriteString("; no suspicious patterns")
	}
	if len(insufficient) > 0 {
		b.WriteString("; insufficient data for ")
		b.WriteString(strings.Join(insufficient, ", "))
	}
	return b.String()
}

// Configure updates the aggregator configuration.
func (a *Aggregator) Configure(config json.RawMessage) error {
	newConfig := DefaultAggregatorConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateAggregatorConfig(newConfig); err != nil {
		return err
	}

	a.mu.Lock()
	a.config = cloneAggregatorConfig(newConfig)
	a.mu.Unlock()

	return nil
}

// Config returns a copy of the current configuration.
func (a *Aggregator) Config() AggregatorConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return cloneAggregatorConfig(a.config)
}

func validateAggregatorConfig(config AggregatorConfig) error {
	for m, w := range config.Weights {
		if w < 0 {
			return fmt.Errorf("weight for %s must not be negative", m)
		}
	}
	if config.BotThreshold < 0 || config.BotThreshold > 1 {
		return fmt.Errorf("bot_threshold must be in [0,1]")
	}
	if err := config.RiskThresholds.Validate(); err != nil {
		return fmt.Errorf("risk_thresholds: %w", err)
	}
	return nil
}

func cloneAggregatorConfig(config AggregatorConfig) AggregatorConfig {
	weights := make(map[Method]float64, len(config.Weights))
	for m, w := range config.Weights {
		weights[m] = w
	}
	config.Weights = weights
	return config
}
