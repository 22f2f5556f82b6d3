// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

// Package composite blends the behavioral bot confidence with externally
// scored text quality into a single risk score.
//
// The text-quality scorer is an external service. When it has no data, or
// cannot be reached in time, the composite score equals the behavioral
// score exactly and the risk tier is derived from it alone.
package composite

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/metrics"
	"github.com/tomtom215/surveyguard/internal/models"
	"github.com/tomtom215/surveyguard/internal/stats"
)

// Config configures the composite calculator.
type Config struct {
	// BehavioralWeight weights the behavioral confidence (default: 0.6).
	BehavioralWeight float64 `json:"behavioral_weight" koanf:"behavioral_weight"`

	// QualityWeight weights the inverted text quality (default: 0.4).
	QualityWeight float64 `json:"quality_weight" koanf:"quality_weight"`

	// BotThreshold marks is_bot when composite >= threshold (default: 0.7).
	BotThreshold float64 `json:"bot_threshold" koanf:"bot_threshold"`

	// RiskThresholds are the tier boundaries (default: 0.4/0.6/0.8).
	RiskThresholds models.RiskThresholds `json:"risk_thresholds" koanf:"risk_thresholds"`

	// QualityTimeoutMs bounds a QualitySource lookup (default: 500).
	QualityTimeoutMs int `json:"quality_timeout_ms" koanf:"quality_timeout_ms"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BehavioralWeight: 0.6,
		QualityWeight:    0.4,
		BotThreshold:     0.7,
		RiskThresholds:   models.DefaultRiskThresholds(),
		QualityTimeoutMs: 500,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BehavioralWeight < 0 || c.QualityWeight < 0 {
		return fmt.Errorf("weights must not be negative")
	}
	if math.Abs(c.BehavioralWeight+c.QualityWeight-1) > 1e-9 {
		return fmt.Errorf("behavioral_weight and quality_weight must sum to 1, got %.3f",
			c.BehavioralWeight+c.QualityWeight)
	}
	if c.BotThreshold < 0 || c.BotThreshold > 1 {
		return fmt.Errorf("bot_threshold must be in [0,1]")
	}
	if c.QualityTimeoutMs < 0 {
		return fmt.Errorf("quality_timeout_ms must not be negative")
	}
	return c.RiskThresholds.Validate()
}

// QualitySource fetches externally computed text-quality scores for a session.
type QualitySource interface {
	QualityScores(ctx context.Context, sessionID string) ([]models.QualityInput, error)
}

// Calculator computes composite risk scores.
type Calculator struct {
	config Config
	mu     sync.RWMutex
}

// NewCalculator creates a calculator. Invalid configurations fall back to defaults.
func NewCalculator(config Config) *Calculator {
	if err := config.Validate(); err != nil {
		config = DefaultConfig()
	}
	return &Calculator{config: config}
}

// MeanQuality returns the mean of the valid scores clamped to [0,100].
// ok is false when no score is usable.
func MeanQuality(inputs []models.QualityInput) (mean float64, ok bool) {
	scores := make([]float64, 0, len(inputs))
	for _, in := range inputs {
		if math.IsNaN(in.Score) || math.IsInf(in.Score, 0) {
			continue
		}
		scores = append(scores, stats.Clamp(in.Score, 0, 100))
	}
	if len(scores) == 0 {
		return 0, false
	}
	return stats.Mean(scores), true
}

// Calculate blends behavioral with the mean text quality of inputs.
// Without usable quality data the composite equals behavioral.
func (c *Calculator) Calculate(behavioral float64, inputs []models.QualityInput) models.CompositeScore {
	c.mu.RLock()
	config := c.config
	c.mu.RUnlock()

	behavioral = stats.Clamp01(behavioral)
	result := models.CompositeScore{
		CompositeScore:  behavioral,
		BehavioralScore: behavioral,
	}

	if quality, ok := MeanQuality(inputs); ok {
		q := quality
		result.TextQualityScore = &q
		result.UsedTextQuality = true
		result.CompositeScore = stats.Clamp01(
			config.BehavioralWeight*behavioral + config.QualityWeight*(1-quality/100))

		for _, in := range inputs {
			for _, flag := range in.Flags {
				metrics.RecordQualityFlag("text_" + flag)
			}
		}
	}

	result.RiskLevel = config.RiskThresholds.Classify(result.CompositeScore)
	result.IsBot = result.CompositeScore >= config.BotThreshold

	metrics.RecordClassification("composite", result.IsBot, string(result.RiskLevel))
	return result
}

// CalculateFromSource fetches quality scores from src and calls Calculate.
// A nil source, a lookup error or a timeout falls back to the behavioral score.
func (c *Calculator) CalculateFromSource(ctx context.Context, behavioral float64, sessionID string, src QualitySource) models.CompositeScore {
	if src == nil {
		return c.Calculate(behavioral, nil)
	}

	c.mu.RLock()
	timeout := time.Duration(c.config.QualityTimeoutMs) * time.Millisecond
	c.mu.RUnlock()

	inputs, err := fetchQuality(ctx, timeout, sessionID, src)
	if err != nil {
		metrics.RecordLookupFallback("text_quality")
		logging.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).
			Msg("Text quality unavailable, using behavioral score")
		return c.Calculate(behavioral, nil)
	}
	return c.Calculate(behavioral, inputs)
}

type qualityResult struct {
	inputs []models.QualityInput
	err    error
}

func fetchQuality(ctx context.Context, timeout time.Duration, sessionID string, src QualitySource) ([]models.QualityInput, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan qualityResult, 1)
	go func() {
		inputs, err := src.QualityScores(ctx, sessionID)
		done <- qualityResult{inputs: inputs, err: err}
	}()

	select {
	case r := <-done:
		return r.inputs, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Configure updates the calculator configuration.
func (c *Calculator) Configure(config json.RawMessage) error {
	newConfig := DefaultConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := newConfig.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()

	return nil
}

// Config returns the current configuration.
func (c *Calculator) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}
