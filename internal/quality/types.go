// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package quality

import (
	"errors"
	"fmt"
)

// ErrNoResponses is returned when a detector receives nothing to analyze.
var ErrNoResponses = errors.New("no responses to analyze")

// GridConfig configures the grid response pattern detector.
type GridConfig struct {
	// StraightLineThreshold is the modal share that marks straight-lining (default: 0.8).
	StraightLineThreshold float64 `json:"straight_line_threshold" koanf:"straight_line_threshold"`

	// SaturationCount is the row count at which confidence stops growing (default: 10).
	SaturationCount int `json:"saturation_count" koanf:"saturation_count"`

	// MinPatternPoints is the numeric point count below which no pattern is reported (default: 3).
	MinPatternPoints int `json:"min_pattern_points" koanf:"min_pattern_points"`

	// MinZigzagPoints is the point count required for a zigzag (default: 4).
	MinZigzagPoints int `json:"min_zigzag_points" koanf:"min_zigzag_points"`

	// ZeroMeanScale divides the stdev when the mean is zero (default: 10).
	ZeroMeanScale float64 `json:"zero_mean_scale" koanf:"zero_mean_scale"`

	// FastResponseMs is the mean row time at which the speed term is zero (default: 10000).
	FastResponseMs float64 `json:"fast_response_ms" koanf:"fast_response_ms"`

	// FastResponseRangeMs is the span over which the speed term ramps to one (default: 8000).
	FastResponseRangeMs float64 `json:"fast_response_range_ms" koanf:"fast_response_range_ms"`

	// VarianceWeight, SpeedWeight and PatternWeight combine the satisficing terms (default: 0.4/0.3/0.3).
	VarianceWeight float64 `json:"variance_weight" koanf:"variance_weight"`
	SpeedWeight    float64 `json:"speed_weight" koanf:"speed_weight"`
	PatternWeight  float64 `json:"pattern_weight" koanf:"pattern_weight"`
}

// DefaultGridConfig returns sensible defaults.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		StraightLineThreshold: 0.8,
		SaturationCount:       10,
		MinPatternPoints:      3,
		MinZigzagPoints:       4,
		ZeroMeanScale:         10,
		FastResponseMs:        10000,
		FastResponseRangeMs:   8000,
		VarianceWeight:        0.4,
		SpeedWeight:           0.3,
		PatternWeight:         0.3,
	}
}

// Validate checks the grid configuration.
func (c GridConfig) Validate() error {
	if c.StraightLineThreshold <= 0 || c.StraightLineThreshold > 1 {
		return fmt.Errorf("straight_line_threshold must be in (0,1]")
	}
	if c.SaturationCount < 1 {
		return fmt.Errorf("saturation_count must be at least 1")
	}
	if c.MinPatternPoints < 2 {
		return fmt.Errorf("min_pattern_points must be at least 2")
	}
	if c.MinZigzagPoints < c.MinPatternPoints {
		return fmt.Errorf("min_zigzag_points must be at least min_pattern_points")
	}
	if c.ZeroMeanScale <= 0 {
		return fmt.Errorf("zero_mean_scale must be positive")
	}
	if c.FastResponseRangeMs <= 0 {
		return fmt.Errorf("fast_response_range_ms must be positive")
	}
	if c.VarianceWeight < 0 || c.SpeedWeight < 0 || c.PatternWeight < 0 {
		return fmt.Errorf("satisficing weights must not be negative")
	}
	if sum := c.VarianceWeight + c.SpeedWeight + c.PatternWeight; sum > 1+1e-9 {
		return fmt.Errorf("satisficing weights must sum to at most 1, got %.3f", sum)
	}
	return nil
}

// TimingConfig configures the timing anomaly detector.
type TimingConfig struct {
	// SpeederMs is the fixed speeder threshold (default: 2000).
	SpeederMs float64 `json:"speeder_ms" koanf:"speeder_ms"`

	// FlatlinerMs is the fixed flatliner threshold (default: 300000).
	FlatlinerMs float64 `json:"flatliner_ms" koanf:"flatliner_ms"`

	// AdaptiveMinSamples enables adaptive thresholds at this batch size (default: 3).
	AdaptiveMinSamples int `json:"adaptive_min_samples" koanf:"adaptive_min_samples"`

	// AdaptiveSpeederFloorMs is the lowest adaptive speeder threshold (default: 500).
	AdaptiveSpeederFloorMs float64 `json:"adaptive_speeder_floor_ms" koanf:"adaptive_speeder_floor_ms"`

	// AdaptiveFlatlinerCeilingMs is the highest adaptive flatliner threshold (default: 600000).
	AdaptiveFlatlinerCeilingMs float64 `json:"adaptive_flatliner_ceiling_ms" koanf:"adaptive_flatliner_ceiling_ms"`

	// StdDevMultiplier places adaptive thresholds at mean -/+ k*sd (default: 2).
	StdDevMultiplier float64 `json:"stddev_multiplier" koanf:"stddev_multiplier"`

	// ZScoreThreshold flags |z| above this (default: 2.5).
	ZScoreThreshold float64 `json:"zscore_threshold" koanf:"zscore_threshold"`

	// ZScoreMinSamples is the batch size required for z-scores (default: 3).
	ZScoreMinSamples int `json:"zscore_min_samples" koanf:"zscore_min_samples"`

	// ZScoreScale maps |z| to an anomaly score as min(|z|/scale, 1) (default: 5).
	ZScoreScale float64 `json:"zscore_scale" koanf:"zscore_scale"`
}

// DefaultTimingConfig returns sensible defaults.
func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		SpeederMs:                  2000,
		FlatlinerMs:                300000,
		AdaptiveMinSamples:         3,
		AdaptiveSpeederFloorMs:     500,
		AdaptiveFlatlinerCeilingMs: 600000,
		StdDevMultiplier:           2,
		ZScoreThreshold:            2.5,
		ZScoreMinSamples:           3,
		ZScoreScale:                5,
	}
}

// Validate checks the timing configuration.
func (c TimingConfig) Validate() error {
	if c.SpeederMs <= 0 || c.FlatlinerMs <= c.SpeederMs {
		return fmt.Errorf("flatliner_ms must be greater than speeder_ms and both positive")
	}
	if c.AdaptiveSpeederFloorMs < 0 || c.AdaptiveSpeederFloorMs > c.SpeederMs {
		return fmt.Errorf("adaptive_speeder_floor_ms must be in [0, speeder_ms]")
	}
	if c.AdaptiveFlatlinerCeilingMs < c.FlatlinerMs {
		return fmt.Errorf("adaptive_flatliner_ceiling_ms must be at least flatliner_ms")
	}
	if c.AdaptiveMinSamples < 2 || c.ZScoreMinSamples < 2 {
		return fmt.Errorf("adaptive_min_samples and zscore_min_samples must be at least 2")
	}
	if c.StdDevMultiplier <= 0 || c.ZScoreThreshold <= 0 || c.ZScoreScale <= 0 {
		return fmt.Errorf("stddev_multiplier, zscore_threshold and zscore_scale must be positive")
	}
	return nil
}
