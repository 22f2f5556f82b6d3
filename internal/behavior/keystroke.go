// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package behavior

import (
	"fmt"
	"math"
	"sync"

	"github.com/goccy/go-json"
	"github.com/tomtom215/surveyguard/internal/models"
	"github.com/tomtom215/surveyguard/internal/stats"
)

// quantizationEpsilon absorbs float error when testing interval multiples.
const quantizationEpsilon = 1e-6

// KeystrokeAnalyzer flags scripted typing: metronomic intervals, impossible speed,
// implausibly slow entry, and intervals snapped to a timer resolution.
type KeystrokeAnalyzer struct {
	config  KeystrokeConfig
	enabled bool
	mu      sync.RWMutex
}

// NewKeystrokeAnalyzer creates a keystroke analyzer with default configuration.
func NewKeystrokeAnalyzer() *KeystrokeAnalyzer {
	return &KeystrokeAnalyzer{
		config:  DefaultKeystrokeConfig(),
		enabled: true,
	}
}

// Method returns the analyzer identity.
func (a *KeystrokeAnalyzer) Method() Method {
	return MethodKeystroke
}

// Analyze scores the session's keystroke intervals. Score = flags/4.
func (a *KeystrokeAnalyzer) Analyze(events *NormalizedEvents) Signal {
	a.mu.RLock()
	config := a.config
	a.mu.RUnlock()

	keystrokes := events.Of(models.EventTypeKeystroke)
	if len(keystrokes) < config.MinEvents || len(keystrokes) < 2 {
		return neutralSignal(MethodKeystroke, len(keystrokes))
	}

	intervals := stats.Intervals(timestampsMs(keystrokes))
	mean, stdDev := stats.MeanStdDev(intervals)

	flags := newFlagSet()
	if stdDev < config.MinStdDevMs {
		flags.add("robotic_regularity", 1)
	}
	if mean < config.MinMeanMs {
		flags.add("superhuman_speed", 1)
	} else if mean > config.MaxMeanMs {
		flags.add("suspiciously_slow", 1)
	}
	if quantizedShare(intervals, config.QuantizationStepMs) >= config.QuantizationRatio {
		flags.add("quantized_timing", 1)
	}

	return Signal{
		Method:     MethodKeystroke,
		Score:      math.Min(flags.count/4, 1),
		Flags:      flags.names,
		FlagCount:  flags.count,
		EventCount: len(keystrokes),
	}
}

// quantizedShare returns the fraction of intervals that are exact multiples of step.
func quantizedShare(intervals []float64, step float64) float64 {
	if len(intervals) == 0 || step <= 0 {
		return 0
	}
	quantized := 0
	for _, iv := range intervals {
		rem := math.Mod(math.Abs(iv), step)
		if rem < quantizationEpsilon || step-rem < quantizationEpsilon {
			quantized++
		}
	}
	return float64(quantized) / float64(len(intervals))
}

// Configure updates the analyzer configuration.
func (a *KeystrokeAnalyzer) Configure(config json.RawMessage) error {
	newConfig := DefaultKeystrokeConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if newConfig.MinEvents < 2 {
		return fmt.Errorf("min_events must be at least 2")
	}
	if newConfig.MinStdDevMs < 0 {
		return fmt.Errorf("min_stddev_ms must not be negative")
	}
	if newConfig.MinMeanMs < 0 || newConfig.MaxMeanMs <= newConfig.MinMeanMs {
		return fmt.Errorf("max_mean_ms must be greater than min_mean_ms")
	}
	if newConfig.QuantizationStepMs <= 0 {
		return fmt.Errorf("quantization_step_ms must be positive")
	}
	if newConfig.QuantizationRatio <= 0 || newConfig.QuantizationRatio > 1 {
		return fmt.Errorf("quantization_ratio must be in (0,1]")
	}

	a.mu.Lock()
	a.config = newConfig
	a.mu.Unlock()

	return nil
}

// Enabled returns whether this analyzer is enabled.
func (a *KeystrokeAnalyzer) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled enables or disables the analyzer.
func (a *KeystrokeAnalyzer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Config returns the current configuration.
func (a *KeystrokeAnalyzer) Config() KeystrokeConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}
