// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/surveyguard/internal/models"
	"github.com/tomtom215/surveyguard/internal/stats"
)

// Aggregator combines fraud findings into a FraudIndicator.
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

// Aggregate computes the weighted score over the findings present. Signals
// without a finding (disabled analyzers) are excluded from the weight total.
func (a *Aggregator) Aggregate(sessionID string, findings []Finding) *models.FraudIndicator {
	a.mu.RLock()
	config := a.config
	a.mu.RUnlock()

	bySignal := make(map[string]Finding, len(findings))
	for _, f := range findings {
		f.Risk = stats.Clamp01(f.Risk)
		bySignal[f.Signal] = f
	}

	ind := &models.FraudIndicator{
		SessionID:             sessionID,
		FlagReasons:           make(map[string]models.FlagReason),
		GeolocationConsistent: true,
		CreatedAt:             time.Now().UTC(),
	}

	var weighted, totalWeight float64
	for _, signal := range AllSignals {
		f, ok := bySignal[signal]
		if !ok {
			continue
		}

		switch signal {
		case SignalIPReuse:
			ind.IPRisk = f.Risk
		case SignalFingerprintReuse:
			ind.FingerprintRisk = f.Risk
			ind.Fingerprint = f.Fingerprint
		case SignalDuplicate:
			ind.DuplicateSimilarity = f.Risk
			ind.MaxSimilarity = f.MaxSimilarity
			ind.DuplicateCount = f.DuplicateCount
		case SignalGeolocation:
			ind.GeolocationRisk = f.Risk
			ind.GeolocationConsistent = f.Consistent
			ind.Country = f.Country
		case SignalVelocity:
			ind.VelocityRisk = f.Risk
		}

		if f.Degraded {
			ind.DegradedSignals = append(ind.DegradedSignals, signal)
		}

		if w := config.Weights[signal]; w > 0 {
			weighted += w * f.Risk
			totalWeight += w
		}

		if th, ok := config.FlagThresholds[signal]; ok && f.Risk >= th.Flag {
			severity := models.SeverityMedium
			if f.Risk >= th.High {
				severity = models.SeverityHigh
			}
			ind.FlagReasons[signal] = models.FlagReason{
				Score:    f.Risk,
				Severity: severity,
				Message:  flagMessage(f),
			}
		}
	}

	if totalWeight > 0 {
		ind.OverallFraudScore = stats.Clamp01(weighted / totalWeight)
	}
	ind.IsDuplicate = ind.OverallFraudScore >= config.DuplicateThreshold
	ind.RiskLevel = config.RiskThresholds.Classify(ind.OverallFraudScore)

	return ind
}

func flagMessage(f Finding) string {
	switch f.Signal {
	case SignalIPReuse:
		return fmt.Sprintf("IP address seen in %d prior sessions, %d in the last %s", f.Count, f.RecentCount, f.Window)
	case SignalFingerprintReuse:
		return fmt.Sprintf("device fingerprint seen in %d prior sessions", f.Count)
	case SignalDuplicate:
		return fmt.Sprintf("%d response pairs are near-duplicates (max similarity %.2f, %s)", f.DuplicateCount, f.MaxSimilarity, SimilarityMetric)
	case SignalGeolocation:
		return fmt.Sprintf("country %s differs from respondent's recent sessions (%s)", f.Country, strings.Join(f.OtherCountries, ", "))
	case SignalVelocity:
		return fmt.Sprintf("%d sessions from one identity in the last %s", f.Count, f.Window)
	default:
		return fmt.Sprintf("%s risk %.2f", f.Signal, f.Risk)
	}
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
	var total float64
	for signal, w := range config.Weights {
		if w < 0 {
			return fmt.Errorf("weight for %s must not be negative", signal)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("at least one weight must be positive")
	}
	if config.DuplicateThreshold <= 0 || config.DuplicateThreshold > 1 {
		return fmt.Errorf("duplicate_threshold must be in (0,1]")
	}
	for signal, th := range config.FlagThresholds {
		if th.Flag < 0 || th.High > 1 || th.High < th.Flag {
			return fmt.Errorf("flag threshold for %s must satisfy 0 <= flag <= high <= 1", signal)
		}
	}
	if err := config.RiskThresholds.Validate(); err != nil {
		return fmt.Errorf("risk_thresholds: %w", err)
	}
	return nil
}

func cloneAggregatorConfig(config AggregatorConfig) AggregatorConfig {
	weights := make(map[string]float64, len(config.Weights))
	for k, v := range config.Weights {
		weights[k] = v
	}
	thresholds := make(map[string]FlagThreshold, len(config.FlagThresholds))
	for k, v := range config.FlagThresholds {
		thresholds[k] = v
	}
	config.Weights = weights
	config.FlagThresholds = thresholds
	return config
}
