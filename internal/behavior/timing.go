// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package behavior

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/tomtom215/surveyguard/internal/stats"
)

// TimingAnalyzer looks at whole-session pacing across all event types.
type TimingAnalyzer struct {
	config  TimingConfig
	enabled bool
	mu      sync.RWMutex
}

// NewTimingAnalyzer creates a timing analyzer with default configuration.
func NewTimingAnalyzer() *TimingAnalyzer {
	return &TimingAnalyzer{
		config:  DefaultTimingConfig(),
		enabled: true,
	}
}

// Method returns the analyzer identity.
func (a *TimingAnalyzer) Method() Method {
	return MethodTiming
}

// Analyze scores session pacing. Score = flags/3.
func (a *TimingAnalyzer) Analyze(events *NormalizedEvents) Signal {
	a.mu.RLock()
	config := a.config
	a.mu.RUnlock()

	n := events.Len()
	if n < config.MinEvents || n < 2 {
		return neutralSignal(MethodTiming, n)
	}

	duration := events.Duration().Seconds()

	flags := newFlagSet()
	if duration < config.MinDurationSeconds {
		flags.add("short_session", 1)
	}
	// A zero-length session has an unbounded event rate.
	if duration <= 0 || float64(n)/duration > config.MaxEventsPerSecond {
		flags.add("burst_rate", 1)
	}

	intervalsMs := stats.Intervals(timestampsMs(events.All))
	if stats.StdDev(intervalsMs)/1000 < config.MinIntervalStdDevSeconds {
		flags.add("uniform_intervals", 1)
	}

	return Signal{
		Method:     MethodTiming,
		Score:      flags.count / 3,
		Flags:      flags.names,
		FlagCount:  flags.count,
		EventCount: n,
	}
}

// Configure updates the analyzer configuration.
func (a *TimingAnalyzer) Configure(config json.RawMessage) error {
	newConfig := DefaultTimingConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if newConfig.MinEvents < 2 {
		return fmt.Errorf("min_events must be at least 2")
	}
	if newConfig.MinDurationSeconds < 0 {
		return fmt.Errorf("min_duration_seconds must not be negative")
	}
	if newConfig.MaxEventsPerSecond <= 0 {
		return fmt.Errorf("max_events_per_second must be positive")
	}
	if newConfig.MinIntervalStdDevSeconds < 0 {
		return fmt.Errorf("min_interval_stddev_seconds must not be negative")
	}

	a.mu.Lock()
	a.config = newConfig
	a.mu.Unlock()

	return nil
}

// Enabled returns whether this analyzer is enabled.
func (a *TimingAnalyzer) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled enables or disables the analyzer.
func (a *TimingAnalyzer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Config returns the current configuration.
func (a *TimingAnalyzer) Config() TimingConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}
