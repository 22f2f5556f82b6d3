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

// MouseAnalyzer flags pointer movement that is too straight, too fast, too precise
// or too uniform to come from a human hand.
type MouseAnalyzer struct {
	config  MouseConfig
	enabled bool
	mu      sync.RWMutex
}

// NewMouseAnalyzer creates a mouse analyzer with default configuration.
func NewMouseAnalyzer() *MouseAnalyzer {
	return &MouseAnalyzer{
		config:  DefaultMouseConfig(),
		enabled: true,
	}
}

// Method returns the analyzer identity.
func (a *MouseAnalyzer) Method() Method {
	return MethodMouse
}

// Analyze scores mouse events. Per-event flags accumulate, so the
// score is normalized by the event count: min(flags/(n+1), 1).
func (a *MouseAnalyzer) Analyze(events *NormalizedEvents) Signal {
	a.mu.RLock()
	config := a.config
	a.mu.RUnlock()

	moves := events.Of(models.EventTypeMouse)
	n := len(moves)
	if n < config.MinEvents {
		return neutralSignal(MethodMouse, n)
	}

	flags := newFlagSet()
	var distances []float64

	for i := range moves {
		e := &moves[i]
		var prev *models.InteractionEvent
		if i > 0 {
			prev = &moves[i-1]
		}

		if e.MovementType == models.MovementTypeLinear {
			flags.add("linear_movement", 1)
		}
		if speed, ok := mouseSpeed(prev, e); ok && speed > config.MaxSpeedPxPerSec {
			flags.add("excessive_speed", 1)
		}
		if e.Precision != nil && *e.Precision > config.MaxPrecision {
			flags.add("perfect_precision", 1)
		}
		if d, ok := mouseDistance(prev, e); ok {
			distances = append(distances, d)
		}
	}

	if n > config.UniformityMinEvents && len(distances) >= 2 &&
		stats.StdDev(distances) < config.MinDistanceStdDev {
		flags.add("uniform_distance", 1)
	}

	return Signal{
		Method:     MethodMouse,
		Score:      math.Min(flags.count/float64(n+1), 1),
		Flags:      flags.names,
		FlagCount:  flags.count,
		EventCount: n,
	}
}

// mouseDistance returns the reported distance, or the straight-line distance
// from the previous positioned event.
func mouseDistance(prev, cur *models.InteractionEvent) (float64, bool) {
	if cur.Distance != nil {
		return *cur.Distance, true
	}
	if prev == nil || !prev.HasPosition() || !cur.HasPosition() {
		return 0, false
	}
	return math.Hypot(*cur.X-*prev.X, *cur.Y-*prev.Y), true
}

// mouseSpeed returns the reported speed, or distance over elapsed time in px/s.
func mouseSpeed(prev, cur *models.InteractionEvent) (float64, bool) {
	if cur.Speed != nil {
		return *cur.Speed, true
	}
	if prev == nil {
		return 0, false
	}
	d, ok := mouseDistance(prev, cur)
	if !ok {
		return 0, false
	}
	dt := cur.Timestamp.Sub(prev.Timestamp)
	if dt <= 0 {
		return 0, false
	}
	return d / dt.Seconds(), true
}

// Configure updates the analyzer configuration.
func (a *MouseAnalyzer) Configure(config json.RawMessage) error {
	newConfig := DefaultMouseConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if newConfig.MinEvents < 1 {
		return fmt.Errorf("min_events must be at least 1")
	}
	if newConfig.MaxSpeedPxPerSec <= 0 {
		return fmt.Errorf("max_speed_px_per_sec must be positive")
	}
	if newConfig.MaxPrecision <= 0 || newConfig.MaxPrecision > 1 {
		return fmt.Errorf("max_precision must be in (0,1]")
	}
	if newConfig.MinDistanceStdDev < 0 {
		return fmt.Errorf("min_distance_stddev must not be negative")
	}
	if newConfig.UniformityMinEvents < 2 {
		return fmt.Errorf("uniformity_min_events must be at least 2")
	}

	a.mu.Lock()
	a.config = newConfig
	a.mu.Unlock()

	return nil
}

// Enabled returns whether this analyzer is enabled.
func (a *MouseAnalyzer) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled enables or disables the analyzer.
func (a *MouseAnalyzer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Config returns the current configuration.
func (a *MouseAnalyzer) Config() MouseConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

