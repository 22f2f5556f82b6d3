// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package behavior

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"
)

// NetworkAnalyzer reserves a slot for network-level signals. It reports a
// fixed score so the aggregation weights stay stable once real signals land.
type NetworkAnalyzer struct {
	config  NetworkConfig
	enabled bool
	mu      sync.RWMutex
}

// NewNetworkAnalyzer creates a network analyzer with default configuration.
func NewNetworkAnalyzer() *NetworkAnalyzer {
	return &NetworkAnalyzer{
		config:  DefaultNetworkConfig(),
		enabled: true,
	}
}

// Method returns the analyzer identity.
func (a *NetworkAnalyzer) Method() Method {
	return MethodNetwork
}

// Analyze returns the configured fixed score.
func (a *NetworkAnalyzer) Analyze(events *NormalizedEvents) Signal {
	a.mu.RLock()
	score := a.config.Score
	a.mu.RUnlock()

	return Signal{
		Method:     MethodNetwork,
		Score:      score,
		EventCount: events.Len(),
	}
}

// Configure updates the analyzer configuration.
func (a *NetworkAnalyzer) Configure(config json.RawMessage) error {
	newConfig := DefaultNetworkConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if newConfig.Score < 0 || newConfig.Score > 1 {
		return fmt.Errorf("score must be in [0,1]")
	}

	a.mu.Lock()
	a.config = newConfig
	a.mu.Unlock()

	return nil
}

// Enabled returns whether this analyzer is enabled.
func (a *NetworkAnalyzer) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled enables or disables the analyzer.
func (a *NetworkAnalyzer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}
