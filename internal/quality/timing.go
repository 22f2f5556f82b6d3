// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package quality

import (
	"fmt"
	"math"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/surveyguard/internal/metrics"
	"github.com/tomtom215/surveyguard/internal/models"
	"github.com/tomtom215/surveyguard/internal/stats"
)

// Thresholds are the speeder and flatliner cut-offs applied to one batch.
// The fixed cut-offs always apply. Adaptive cut-offs are reported when the
// batch is large enough and can only add flags, never remove them.
type Thresholds struct {
	SpeederMs           float64 `json:"speeder_ms"`
	FlatlinerMs         float64 `json:"flatliner_ms"`
	Adaptive            bool    `json:"adaptive"`
	AdaptiveSpeederMs   float64 `json:"adaptive_speeder_ms,omitempty"`
	AdaptiveFlatlinerMs float64 `json:"adaptive_flatliner_ms,omitempty"`
}

// speeder reports whether ms falls under the fixed or adaptive speeder cut-off.
func (t Thresholds) speeder(ms float64) bool {
	return ms < t.SpeederMs || (t.Adaptive && ms < t.AdaptiveSpeederMs)
}

// flatliner reports whether ms exceeds the fixed or adaptive flatliner cut-off.
func (t Thresholds) flatliner(ms float64) bool {
	return ms > t.FlatlinerMs || (t.Adaptive && ms > t.AdaptiveFlatlinerMs)
}

// TimingDetector flags questions answered implausibly fast or slow.
type TimingDetector struct {
	config TimingConfig
	mu     sync.RWMutex
}

// NewTimingDetector creates a timing detector. Invalid configurations fall back to defaults.
func NewTimingDetector(config TimingConfig) *TimingDetector {
	if err := config.Validate(); err != nil {
		config = DefaultTimingConfig()
	}
	return &TimingDetector{config: config}
}

// Thresholds returns the cut-offs for a batch of response times.
// Batches with at least AdaptiveMinSamples entries also get adaptive
// cut-offs at mean -/+ k*sd, bounded by the configured floor and ceiling.
func (d *TimingDetector) Thresholds(times []float64) Thresholds {
	d.mu.RLock()
	config := d.config
	d.mu.RUnlock()
	return thresholdsFor(times, config)
}

func thresholdsFor(times []float64, config TimingConfig) Thresholds {
	t := Thresholds{
		SpeederMs:   config.SpeederMs,
		FlatlinerMs: config.FlatlinerMs,
	}
	if len(times) < config.AdaptiveMinSamples {
		return t
	}

	mean, sd := stats.MeanStdDev(times)
	t.AdaptiveSpeederMs = stats.Clamp(mean-config.StdDevMultiplier*sd, config.AdaptiveSpeederFloorMs, config.SpeederMs)
	t.AdaptiveFlatlinerMs = stats.Clamp(mean+config.StdDevMultiplier*sd, config.FlatlinerMs, config.AdaptiveFlatlinerCeilingMs)
	t.Adaptive = true
	return t
}

// validResponseTime reports whether ms is a usable response time.
func validResponseTime(ms float64) bool {
	return ms >= 0 && !math.IsNaN(ms) && !math.IsInf(ms, 0)
}

// Analyze returns one verdict per question, in input order. Negative or
// non-finite times are left out of the batch statistics and get a neutral
// verdict.
func (d *TimingDetector) Analyze(timings []models.QuestionTiming) ([]models.TimingAnalysis, error) {
	if len(timings) == 0 {
		return nil, ErrNoResponses
	}

	d.mu.RLock()
	config := d.config
	d.mu.RUnlock()

	times := make([]float64, 0, len(timings))
	for _, qt := range timings {
		if validResponseTime(qt.ResponseTimeMs) {
			times = append(times, qt.ResponseTimeMs)
		}
	}

	limits := thresholdsFor(times, config)
	mean, sd := stats.MeanStdDev(times)
	useZ := len(times) >= config.ZScoreMinSamples && sd > 0

	results := make([]models.TimingAnalysis, len(timings))
	for i, qt := range timings {
		r := models.TimingAnalysis{
			QuestionID:     qt.QuestionID,
			ResponseTimeMs: qt.ResponseTimeMs,
		}
		if !validResponseTime(qt.ResponseTimeMs) {
			if math.IsNaN(r.ResponseTimeMs) || math.IsInf(r.ResponseTimeMs, 0) {
				r.ResponseTimeMs = 0
			}
			results[i] = r
			continue
		}
		r.IsSpeeder = limits.speeder(qt.ResponseTimeMs)
		r.IsFlatliner = limits.flatliner(qt.ResponseTimeMs)

		var z float64
		if useZ {
			z = (qt.ResponseTimeMs - mean) / sd
			r.ZScore = &z
		}

		switch {
		case r.IsSpeeder:
			r.AnomalyScore = 1
			r.AnomalyType = models.AnomalySpeeder
		case r.IsFlatliner:
			r.AnomalyScore = 1
			r.AnomalyType = models.AnomalyFlatliner
		case useZ && math.Abs(z) > config.ZScoreThreshold:
			r.AnomalyScore = math.Min(math.Abs(z)/config.ZScoreScale, 1)
			if z < 0 {
				r.AnomalyType = models.AnomalySpeeder
			} else {
				r.AnomalyType = models.AnomalyFlatliner
			}
		}

		if r.AnomalyType != models.AnomalyNone {
			metrics.RecordQualityFlag(string(r.AnomalyType))
		}
		results[i] = r
	}

	return results, nil
}

// Configure updates the detector configuration.
func (d *TimingDetector) Configure(config json.RawMessage) error {
	newConfig := DefaultTimingConfig()
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
func (d *TimingDetector) Config() TimingConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}
