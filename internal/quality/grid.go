// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package quality

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/surveyguard/internal/metrics"
	"github.com/tomtom215/surveyguard/internal/models"
	"github.com/tomtom215/surveyguard/internal/stats"
)

// GridDetector classifies answers to grid/matrix questions.
type GridDetector struct {
	config GridConfig
	mu     sync.RWMutex
}

// NewGridDetector creates a grid detector. Invalid configurations fall back to defaults.
func NewGridDetector(config GridConfig) *GridDetector {
	if err := config.Validate(); err != nil {
		config = DefaultGridConfig()
	}
	return &GridDetector{config: config}
}

// Analyze classifies one grid question. Empty and nil values are ignored;
// non-numeric values count toward straight-lining but not toward the
// numeric pattern, variance and satisficing terms.
func (d *GridDetector) Analyze(resp models.GridResponse) (models.GridResponseAnalysis, error) {
	d.mu.RLock()
	config := d.config
	d.mu.RUnlock()

	labels := make([]string, 0, len(resp.Values))
	numeric := make([]float64, 0, len(resp.Values))
	for _, v := range resp.Values {
		label, ok := valueLabel(v)
		if !ok {
			continue
		}
		labels = append(labels, label)
		if f, ok := numericValue(v); ok {
			numeric = append(numeric, f)
		}
	}

	if len(labels) == 0 {
		return models.GridResponseAnalysis{}, fmt.Errorf("question %s: %w", resp.QuestionID, ErrNoResponses)
	}

	n := len(labels)
	saturation := math.Min(float64(n)/float64(config.SaturationCount), 1)
	p := modalShare(labels)

	result := models.GridResponseAnalysis{
		QuestionID:             resp.QuestionID,
		ResponseCount:          n,
		IsStraightLined:        p >= config.StraightLineThreshold,
		StraightLineConfidence: math.Min(p, 1) * saturation,
	}

	pattern := classifyPattern(numeric, config)
	result.PatternType = pattern
	result.PatternConfidence = patternConfidence(pattern, numeric, config)

	if len(numeric) == 0 {
		return result, nil
	}

	result.VarianceScore = varianceScore(numeric, config.ZeroMeanScale)

	satisficing := config.VarianceWeight * (1 - result.VarianceScore)
	if times := validTimes(resp.ResponseTimesMs); len(times) > 0 {
		speed := (config.FastResponseMs - stats.Mean(times)) / config.FastResponseRangeMs
		satisficing += config.SpeedWeight * stats.Clamp01(speed)
	}
	if pattern.IsGeometric() {
		satisficing += config.PatternWeight * result.PatternConfidence
	}
	result.SatisficingScore = stats.Clamp01(satisficing)

	if result.IsStraightLined {
		metrics.RecordQualityFlag("straight_lined")
	}

	return result, nil
}

// AnalyzeAll classifies every question with at least one answer.
// It returns ErrNoResponses only when no question has answers.
func (d *GridDetector) AnalyzeAll(responses []models.GridResponse) ([]models.GridResponseAnalysis, error) {
	results := make([]models.GridResponseAnalysis, 0, len(responses))
	for _, resp := range responses {
		r, err := d.Analyze(resp)
		if err != nil {
			continue
		}
		results = append(results, r)
	}
	if len(results) == 0 {
		return nil, ErrNoResponses
	}
	return results, nil
}

// valueLabel returns the histogram key for a value.
func valueLabel(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 64), true
		}
		return strings.ToLower(s), true
	default:
		if f, ok := numericValue(v); ok {
			return strconv.FormatFloat(f, 'g', -1, 64), true
		}
		return strings.ToLower(fmt.Sprint(v)), true
	}
}

// numericValue extracts a finite float from common JSON and Go numeric forms.
func numericValue(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// modalShare returns the share of the most frequent label.
func modalShare(labels []string) float64 {
	counts := make(map[string]int, len(labels))
	best := 0
	for _, l := range labels {
		counts[l]++
		if counts[l] > best {
			best = counts[l]
		}
	}
	return float64(best) / float64(len(labels))
}

// classifyPattern applies the ordered rules; the first match wins.
func classifyPattern(values []float64, config GridConfig) models.PatternType {
	if len(values) < config.MinPatternPoints {
		return models.PatternNone
	}

	increasing, decreasing, identical := true, true, true
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if d <= 0 {
			increasing = false
		}
		if d >= 0 {
			decreasing = false
		}
		if d != 0 {
			identical = false
		}
	}

	switch {
	case increasing:
		return models.PatternDiagonal
	case decreasing:
		return models.PatternReverseDiagonal
	case len(values) >= config.MinZigzagPoints && alternates(values):
		return models.PatternZigzag
	case identical:
		return models.PatternStraightLine
	default:
		return models.PatternRandom
	}
}

// alternates reports whether consecutive differences strictly alternate in sign.
func alternates(values []float64) bool {
	prev := 0.0
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if d == 0 {
			return false
		}
		if i > 1 && (d > 0) == (prev > 0) {
			return false
		}
		prev = d
	}
	return true
}

func patternConfidence(pattern models.PatternType, numeric []float64, config GridConfig) float64 {
	switch pattern {
	case models.PatternNone, models.PatternRandom:
		return 0
	}
	return math.Min(float64(len(numeric))/float64(config.SaturationCount), 1)
}

// varianceScore is the coefficient of variation capped at 1. A zero mean
// uses stdev/zeroMeanScale instead.
func varianceScore(values []float64, zeroMeanScale float64) float64 {
	mean, sd := stats.MeanStdDev(values)
	if mean == 0 {
		return math.Min(sd/zeroMeanScale, 1)
	}
	return math.Min(sd/math.Abs(mean), 1)
}

func validTimes(times []float64) []float64 {
	out := make([]float64, 0, len(times))
	for _, t := range times {
		if t >= 0 && !math.IsNaN(t) && !math.IsInf(t, 0) {
			out = append(out, t)
		}
	}
	return out
}

// Configure updates the detector configuration.
func (d *GridDetector) Configure(config json.RawMessage) error {
	newConfig := DefaultGridConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := newConfig.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	d.config = newConfig
	d.mu.Unlock()

	return nil
}

// Config returns the current configuration.
func (d *GridDetector) Config() GridConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}
