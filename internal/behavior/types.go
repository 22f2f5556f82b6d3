// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package behavior

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/tomtom215/surveyguard/internal/models"
)

// NeutralScore is returned when an analyzer has too little data to judge.
const NeutralScore = 0.5

// ErrNoBehaviorData is returned when a whole-session analysis receives no events.
var ErrNoBehaviorData = errors.New("no behavior data to analyze")

// Method identifies a behavioral analyzer.
type Method string

const (
	// MethodKeystroke scores inter-keystroke timing.
	MethodKeystroke Method = "keystroke"

	// MethodMouse scores pointer movement features.
	MethodMouse Method = "mouse"

	// MethodTiming scores whole-session pacing.
	MethodTiming Method = "timing"

	// MethodDevice scores screen and viewport consistency.
	MethodDevice Method = "device"

	// MethodNetwork is the placeholder for network-level signals.
	MethodNetwork Method = "network"
)

// AllMethods lists analyzers in reporting order.
var AllMethods = []Method{
	MethodKeystroke,
	MethodMouse,
	MethodTiming,
	MethodDevice,
	MethodNetwork,
}

// Signal is the output of one analyzer for one session.
type Signal struct {
	Method Method
	Score  float64

	// Flags lists the distinct patterns that tripped, in detection order.
	Flags []string

	// FlagCount is the weighted number of flags behind Score.
	FlagCount float64

	// EventCount is the number of events the analyzer considered.
	EventCount int

	// Insufficient is true when the analyzer fell back to NeutralScore.
	Insufficient bool
}

// neutralSignal builds the insufficient-data result for an analyzer.
func neutralSignal(method Method, eventCount int) Signal {
	return Signal{
		Method:       method,
		Score:        NeutralScore,
		EventCount:   eventCount,
		Insufficient: true,
	}
}

// Analyzer maps a normalized event batch to a sub-score in [0,1].
// Implementations must be safe for concurrent use and keep no per-session state.
type Analyzer interface {
	// Method returns the analyzer identity.
	Method() Method

	// Analyze scores the batch.
	Analyze(events *NormalizedEvents) Signal

	// Configure updates the analyzer configuration from JSON.
	Configure(config json.RawMessage) error

	// Enabled returns whether this analyzer participates in aggregation.
	Enabled() bool

	// SetEnabled enables or disables the analyzer.
	SetEnabled(enabled bool)
}

// KeystrokeConfig configures the keystroke analyzer.
type KeystrokeConfig struct {
	// MinEvents is the minimum number of keystrokes required (default: 5).
	MinEvents int `json:"min_events"`

	// MinStdDevMs flags robotic regularity below this interval stdev (default: 10).
	MinStdDevMs float64 `json:"min_stddev_ms"`

	// MinMeanMs flags superhuman typing below this mean interval (default: 50).
	MinMeanMs float64 `json:"min_mean_ms"`

	// MaxMeanMs flags suspiciously slow typing above this mean interval (default: 2000).
	MaxMeanMs float64 `json:"max_mean_ms"`

	// QuantizationStepMs is the timer resolution that simulated input tends to snap to (default: 10).
	QuantizationStepMs float64 `json:"quantization_step_ms"`

	// QuantizationRatio is the share of quantized intervals that trips the flag (default: 0.8).
	QuantizationRatio float64 `json:"quantization_ratio"`
}

// DefaultKeystrokeConfig returns sensible defaults.
func DefaultKeystrokeConfig() KeystrokeConfig {
	return KeystrokeConfig{
		MinEvents:          5,
		MinStdDevMs:        10,
		MinMeanMs:          50,
		MaxMeanMs:          2000,
		QuantizationStepMs: 10,
		QuantizationRatio:  0.8,
	}
}

// MouseConfig configures the mouse analyzer.
type MouseConfig struct {
	// MinEvents is the minimum number of mouse events required (default: 3).
	MinEvents int `json:"min_events"`

	// MaxSpeedPxPerSec flags events moving faster than this (default: 1000).
	MaxSpeedPxPerSec float64 `json:"max_speed_px_per_sec"`

	// MaxPrecision flags events whose reported precision exceeds this (default: 0.99).
	MaxPrecision float64 `json:"max_precision"`

	// MinDistanceStdDev flags unnaturally uniform movement distances (default: 5).
	MinDistanceStdDev float64 `json:"min_distance_stddev"`

	// UniformityMinEvents is the event count above which uniformity is checked (default: 10).
	UniformityMinEvents int `json:"uniformity_min_events"`
}

// DefaultMouseConfig returns sensible defaults.
func DefaultMouseConfig() MouseConfig {
	return MouseConfig{
		MinEvents:           3,
		MaxSpeedPxPerSec:    1000,
		MaxPrecision:        0.99,
		MinDistanceStdDev:   5,
		UniformityMinEvents: 10,
	}
}

// TimingConfig configures the whole-session timing analyzer.
type TimingConfig struct {
	// MinEvents is the minimum number of events required (default: 5).
	MinEvents int `json:"min_events"`

	// MinDurationSeconds flags sessions shorter than this (default: 10).
	MinDurationSeconds float64 `json:"min_duration_seconds"`

	// MaxEventsPerSecond flags sessions with a higher event rate (default: 50).
	MaxEventsPerSecond float64 `json:"max_events_per_second"`

	// MinIntervalStdDevSeconds flags metronomic pacing (default: 0.1).
	MinIntervalStdDevSeconds float64 `json:"min_interval_stddev_seconds"`
}

// DefaultTimingConfig returns sensible defaults.
func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		MinEvents:                5,
		MinDurationSeconds:       10,
		MaxEventsPerSecond:       50,
		MinIntervalStdDevSeconds: 0.1,
	}
}

// DeviceConfig configures the device consistency analyzer.
type DeviceConfig struct {
	// MinEvents is the minimum number of events carrying screen data (default: 1).
	MinEvents int `json:"min_events"`

	// HeadlessResolutions lists "WxH" screen sizes typical of headless browsers.
	HeadlessResolutions []string `json:"headless_resolutions"`

	// HeadlessWeight is added per event on a headless resolution (default: 0.5).
	HeadlessWeight float64 `json:"headless_weight"`
}

// DefaultDeviceConfig returns sensible defaults.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		MinEvents: 1,
		HeadlessResolutions: []string{
			"800x600",  // headless Chrome / Puppeteer default
			"1024x768", // Selenium and PhantomJS default
		},
		HeadlessWeight: 0.5,
	}
}

// NetworkConfig configures the network placeholder analyzer.
type NetworkConfig struct {
	// Score is the fixed score reported until network signals exist (default: 0.5).
	Score float64 `json:"score"`
}

// DefaultNetworkConfig returns sensible defaults.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{Score: NeutralScore}
}

// AggregatorConfig configures how sub-scores combine into a confidence score.
type AggregatorConfig struct {
	// Weights per analyzer. Missing methods default to 1; a zero weight excludes the method.
	Weights map[Method]float64 `json:"weights"`

	// BotThreshold is the confidence above which a session is classified as a bot (default: 0.7).
	BotThreshold float64 `json:"bot_threshold"`

	// RiskThresholds maps confidence to a risk tier.
	RiskThresholds models.RiskThresholds `json:"risk_thresholds"`
}

// DefaultAggregatorConfig returns an equal-weight mean with a 0.7 bot threshold.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Weights: map[Method]float64{
			MethodKeystroke: 1,
			MethodMouse:     1,
			MethodTiming:    1,
			MethodDevice:    1,
			MethodNetwork:   1,
		},
		BotThreshold:   0.7,
		RiskThresholds: models.DefaultRiskThresholds(),
	}
}
