// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/tomtom215/surveyguard/internal/models"
)

// Signal names, used as flag reason keys and degraded-signal entries.
const (
	SignalIPReuse          = "ip_reuse"
	SignalFingerprintReuse = "fingerprint_reuse"
	SignalDuplicate        = "duplicate_response"
	SignalGeolocation      = "geolocation"
	SignalVelocity         = "velocity"
)

// AllSignals lists the fraud signals in reporting order.
var AllSignals = []string{
	SignalIPReuse,
	SignalFingerprintReuse,
	SignalDuplicate,
	SignalGeolocation,
	SignalVelocity,
}

// ResponseRecord is one free-text answer stored for another session.
type ResponseRecord struct {
	SessionID string
	Text      string
}

// HistoryStore is the read-only view of cross-session history the analyzers need.
// A window of 0 means all time. Counts and country lists leave out
// excludeSessionID, so rescoring a recorded session never counts it against itself.
type HistoryStore interface {
	CountSessionsByIP(ctx context.Context, ip, excludeSessionID string, window time.Duration) (int, error)
	CountSessionsByFingerprint(ctx context.Context, fingerprint, excludeSessionID string, window time.Duration) (int, error)
	CountSessionsByRespondent(ctx context.Context, respondentID, excludeSessionID string, window time.Duration) (int, error)
	FetchOtherResponsesInSurvey(ctx context.Context, surveyID, excludeSessionID string) ([]ResponseRecord, error)
	ResolveCountryFromIP(ctx context.Context, ip string) (string, error)
	FetchRespondentCountries(ctx context.Context, respondentID, excludeSessionID string, window time.Duration) ([]string, error)
}

// Finding is one analyzer's output for one session.
type Finding struct {
	Signal string
	Risk   float64

	// Degraded is set when a lookup failed and Risk fell back to zero.
	Degraded bool

	// Count is the primary count behind the risk (all-time for IP reuse).
	Count int

	// RecentCount is the secondary count (last 24h for IP reuse).
	RecentCount int

	Window time.Duration

	Fingerprint    string
	MaxSimilarity  float64
	DuplicateCount int
	Consistent     bool
	Country        string
	OtherCountries []string
}

// Analyzer computes one fraud signal. Implementations must be safe for
// concurrent use; they never return an error for store failures and report
// Degraded instead.
type Analyzer interface {
	// Signal returns the signal name.
	Signal() string

	// Analyze scores the session.
	Analyze(ctx context.Context, session *models.SessionContext) Finding

	// Configure updates the analyzer configuration from JSON.
	Configure(config json.RawMessage) error

	// Enabled returns whether this analyzer is enabled.
	Enabled() bool

	// SetEnabled enables or disables the analyzer.
	SetEnabled(enabled bool)
}

// RiskTier maps a minimum count to a risk value.
type RiskTier struct {
	MinCount int     `json:"min_count"`
	Risk     float64 `json:"risk"`
}

// stepRisk returns the risk of the highest tier whose MinCount is <= count.
// Tiers must be sorted by MinCount.
func stepRisk(tiers []RiskTier, count int) float64 {
	risk := 0.0
	for _, t := range tiers {
		if count < t.MinCount {
			break
		}
		risk = t.Risk
	}
	return risk
}

// validateTiers checks that tiers are ascending and non-decreasing in risk.
func validateTiers(name string, tiers []RiskTier) error {
	prevCount, prevRisk := 0, 0.0
	for i, t := range tiers {
		if t.MinCount < 1 {
			return fmt.Errorf("%s[%d]: min_count must be at least 1", name, i)
		}
		if t.Risk < 0 || t.Risk > 1 {
			return fmt.Errorf("%s[%d]: risk must be in [0,1]", name, i)
		}
		if i > 0 && t.MinCount <= prevCount {
			return fmt.Errorf("%s[%d]: min_count must be ascending", name, i)
		}
		if t.Risk < prevRisk {
			return fmt.Errorf("%s[%d]: risk must not decrease", name, i)
		}
		prevCount, prevRisk = t.MinCount, t.Risk
	}
	return nil
}

// IPReuseConfig configures the IP reuse analyzer.
type IPReuseConfig struct {
	// TotalTiers score all-time sessions sharing the IP.
	TotalTiers []RiskTier `json:"total_tiers"`

	// RecentTiers score sessions sharing the IP within RecentWindowHours.
	RecentTiers []RiskTier `json:"recent_tiers"`

	// RecentWindowHours is the "today" window (default: 24).
	RecentWindowHours int `json:"recent_window_hours"`

	// LookupTimeoutMs bounds each store lookup (default: 250).
	LookupTimeoutMs int `json:"lookup_timeout_ms"`
}

// DefaultIPReuseConfig returns sensible defaults.
func DefaultIPReuseConfig() IPReuseConfig {
	return IPReuseConfig{
		TotalTiers: []RiskTier{
			{MinCount: 3, Risk: 0.3},
			{MinCount: 5, Risk: 0.6},
			{MinCount: 10, Risk: 0.9},
			{MinCount: 20, Risk: 1.0},
		},
		RecentTiers: []RiskTier{
			{MinCount: 2, Risk: 0.4},
			{MinCount: 3, Risk: 0.7},
			{MinCount: 5, Risk: 1.0},
		},
		RecentWindowHours: 24,
		LookupTimeoutMs:   250,
	}
}

// FingerprintConfig configures the device fingerprint reuse analyzer.
type FingerprintConfig struct {
	// Tiers score all-time sessions sharing the fingerprint.
	Tiers []RiskTier `json:"tiers"`

	// LookupTimeoutMs bounds each store lookup (default: 250).
	LookupTimeoutMs int `json:"lookup_timeout_ms"`
}

// DefaultFingerprintConfig returns sensible defaults.
func DefaultFingerprintConfig() FingerprintConfig {
	return FingerprintConfig{
		Tiers: []RiskTier{
			{MinCount: 1, Risk: 0.5},
			{MinCount: 3, Risk: 0.8},
			{MinCount: 5, Risk: 1.0},
		},
		LookupTimeoutMs: 250,
	}
}

// DuplicateConfig configures the duplicate response analyzer.
type DuplicateConfig struct {
	// DuplicateThreshold is the similarity at which a pair counts as a duplicate (default: 0.7).
	DuplicateThreshold float64 `json:"duplicate_threshold"`

	// MinTokens skips answers with fewer distinct tokens (default: 3).
	MinTokens int `json:"min_tokens"`

	// LookupTimeoutMs bounds each store lookup (default: 500).
	LookupTimeoutMs int `json:"lookup_timeout_ms"`
}

// DefaultDuplicateConfig returns sensible defaults.
func DefaultDuplicateConfig() DuplicateConfig {
	return DuplicateConfig{
		DuplicateThreshold: 0.7,
		MinTokens:          3,
		LookupTimeoutMs:    500,
	}
}

// GeolocationConfig configures the geolocation consistency analyzer.
type GeolocationConfig struct {
	// WindowMinutes is the trailing window of respondent sessions compared (default: 60).
	WindowMinutes int `json:"window_minutes"`

	// MismatchRisk is the risk assigned on any country mismatch (default: 0.9).
	MismatchRisk float64 `json:"mismatch_risk"`

	// LookupTimeoutMs bounds each store lookup (default: 250).
	LookupTimeoutMs int `json:"lookup_timeout_ms"`
}

// DefaultGeolocationConfig returns sensible defaults.
func DefaultGeolocationConfig() GeolocationConfig {
	return GeolocationConfig{
		WindowMinutes:   60,
		MismatchRisk:    0.9,
		LookupTimeoutMs: 250,
	}
}

// VelocityConfig configures the velocity analyzer.
type VelocityConfig struct {
	// WindowMinutes is the trailing window counted (default: 60).
	WindowMinutes int `json:"window_minutes"`

	// HalfSaturation is the count at which risk reaches 0.5 (default: 3).
	HalfSaturation float64 `json:"half_saturation"`

	// LookupTimeoutMs bounds each store lookup (default: 250).
	LookupTimeoutMs int `json:"lookup_timeout_ms"`
}

// DefaultVelocityConfig returns sensible defaults.
func DefaultVelocityConfig() VelocityConfig {
	return VelocityConfig{
		WindowMinutes:   60,
		HalfSaturation:  3,
		LookupTimeoutMs: 250,
	}
}

// FlagThreshold sets when a signal produces a flag reason and when that reason is high severity.
type FlagThreshold struct {
	Flag float64 `json:"flag"`
	High float64 `json:"high"`
}

// AggregatorConfig configures the fraud score aggregation.
type AggregatorConfig struct {
	// Weights per signal (default: 0.25/0.25/0.20/0.15/0.15).
	Weights map[string]float64 `json:"weights"`

	// DuplicateThreshold marks a session as a duplicate respondent (default: 0.7).
	DuplicateThreshold float64 `json:"duplicate_threshold"`

	// FlagThresholds per signal.
	FlagThresholds map[string]FlagThreshold `json:"flag_thresholds"`

	// RiskThresholds maps the overall score to a risk tier.
	RiskThresholds models.RiskThresholds `json:"risk_thresholds"`
}

// DefaultAggregatorConfig returns the standard fraud weights and thresholds.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Weights: map[string]float64{
			SignalIPReuse:          0.25,
			SignalFingerprintReuse: 0.25,
			SignalDuplicate:        0.20,
			SignalGeolocation:      0.15,
			SignalVelocity:         0.15,
		},
		DuplicateThreshold: 0.7,
		FlagThresholds: map[string]FlagThreshold{
			SignalIPReuse:          {Flag: 0.6, High: 0.8},
			SignalFingerprintReuse: {Flag: 0.5, High: 0.8},
			SignalDuplicate:        {Flag: 0.6, High: 0.9},
			SignalGeolocation:      {Flag: 0.7, High: 0.9},
			SignalVelocity:         {Flag: 0.6, High: 0.8},
		},
		RiskThresholds: models.DefaultRiskThresholds(),
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
