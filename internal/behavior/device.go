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
)

// DeviceAnalyzer checks screen and viewport consistency within a session.
// A real device does not change its screen resolution mid-survey.
type DeviceAnalyzer struct {
	config   DeviceConfig
	headless map[string]bool
	enabled  bool
	mu       sync.RWMutex
}

// NewDeviceAnalyzer creates a device analyzer with default configuration.
func NewDeviceAnalyzer() *DeviceAnalyzer {
	config := DefaultDeviceConfig()
	return &DeviceAnalyzer{
		config:   config,
		headless: resolutionSet(config.HeadlessResolutions),
		enabled:  true,
	}
}

func resolutionSet(resolutions []string) map[string]bool {
	set := make(map[string]bool, len(resolutions))
	for _, r := range resolutions {
		set[r] = true
	}
	return set
}

// Method returns the analyzer identity.
func (a *DeviceAnalyzer) Method() Method {
	return MethodDevice
}

// Analyze scores device consistency. Score = min(flags/3, 1).
func (a *DeviceAnalyzer) Analyze(events *NormalizedEvents) Signal {
	a.mu.RLock()
	config := a.config
	headless := a.headless
	a.mu.RUnlock()

	screens := make(map[string]bool)
	viewports := make(map[string]bool)
	flags := newFlagSet()
	withScreen := 0

	if events != nil {
		for i := range events.All {
			e := &events.All[i]
			if e.HasScreen() {
				withScreen++
				size := e.ScreenSize()
				screens[size] = true
				if headless[size] {
					flags.add("headless_resolution", config.HeadlessWeight)
				}
			}
			if e.HasViewport() {
				viewports[e.ViewportSize()] = true
			}
		}
	}

	if withScreen < config.MinEvents {
		return neutralSignal(MethodDevice, withScreen)
	}

	if len(screens) > 1 {
		flags.add("screen_changed", 1)
	}
	if len(viewports) > 1 {
		flags.add("viewport_changed", 1)
	}

	return Signal{
		Method:     MethodDevice,
		Score:      math.Min(flags.count/3, 1),
		Flags:      flags.names,
		FlagCount:  flags.count,
		EventCount: withScreen,
	}
}

// Configure updates the analyzer configuration.
func (a *DeviceAnalyzer) Configure(config json.RawMessage) error {
	newConfig := DefaultDeviceConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if newConfig.MinEvents < 1 {
		return fmt.Errorf("min_events must be at least 1")
	}
	if newConfig.HeadlessWeight < 0 {
		return fmt.Errorf("headless_weight must not be negative")
	}

	a.mu.Lock()
	a.config = newConfig
	a.headless = resolutionSet(newConfig.HeadlessResolutions)
	a.mu.Unlock()

	return nil
}

// Enabled returns whether this analyzer is enabled.
func (a *DeviceAnalyzer) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled enables or disables the analyzer.
func (a *DeviceAnalyzer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Config returns the current configuration.
func (a *DeviceAnalyzer) Config() DeviceConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}
