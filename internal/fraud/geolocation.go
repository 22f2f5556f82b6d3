// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/surveyguard/internal/models"
)

// GeolocationAnalyzer checks that a respondent's recent sessions come from one country.
type GeolocationAnalyzer struct {
	store   HistoryStore
	config  GeolocationConfig
	enabled bool
	mu      sync.RWMutex
}

// NewGeolocationAnalyzer creates a geolocation consistency analyzer.
func NewGeolocationAnalyzer(store HistoryStore) *GeolocationAnalyzer {
	return &GeolocationAnalyzer{
		store:   store,
		config:  DefaultGeolocationConfig(),
		enabled: true,
	}
}

// Signal returns the signal name.
func (a *GeolocationAnalyzer) Signal() string {
	return SignalGeolocation
}

// Analyze resolves the session's country and compares it with the countries
// of the respondent's sessions in the trailing window. Unknown countries never
// count as a mismatch.
func (a *GeolocationAnalyzer) Analyze(ctx context.Context, session *models.SessionContext) Finding {
	a.mu.RLock()
	config := a.config
	a.mu.RUnlock()

	window := time.Duration(config.WindowMinutes) * time.Minute
	finding := Finding{Signal: SignalGeolocation, Consistent: true, Window: window}

	if session == nil || session.IPAddress == "" {
		return finding
	}

	timeout := millis(config.LookupTimeoutMs)
	country, err := lookup(ctx, timeout, func(ctx context.Context) (string, error) {
		return a.store.ResolveCountryFromIP(ctx, session.IPAddress)
	})
	if err != nil {
		return degraded(ctx, SignalGeolocation, err)
	}
	country = normalizeCountry(country)
	finding.Country = country

	if country == "" || session.RespondentID == "" {
		return finding
	}

	countries, err := lookup(ctx, timeout, func(ctx context.Context) ([]string, error) {
		return a.store.FetchRespondentCountries(ctx, session.RespondentID, session.SessionID, window)
	})
	if err != nil {
		f := degraded(ctx, SignalGeolocation, err)
		f.Country = country
		return f
	}

	seen := make(map[string]bool)
	for _, c := range countries {
		c = normalizeCountry(c)
		if c == "" || c == country || seen[c] {
			continue
		}
		seen[c] = true
		finding.OtherCountries = append(finding.OtherCountries, c)
	}
	sort.Strings(finding.OtherCountries)

	if len(finding.OtherCountries) > 0 {
		finding.Consistent = false
		finding.Risk = config.MismatchRisk
	}
	finding.Count = len(countries)

	return finding
}

func normalizeCountry(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}

// Configure updates the analyzer configuration.
func (a *GeolocationAnalyzer) Configure(config json.RawMessage) error {
	newConfig := DefaultGeolocationConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if newConfig.WindowMinutes < 1 {
		return fmt.Errorf("window_minutes must be at least 1")
	}
	if newConfig.MismatchRisk < 0 || newConfig.MismatchRisk > 1 {
		return fmt.Errorf("mismatch_risk must be in [0,1]")
	}
	if newConfig.LookupTimeoutMs <= 0 {
		return fmt.Errorf("lookup_timeout_ms must be positive")
	}

	a.mu.Lock()
	a.config = newConfig
	a.mu.Unlock()

	return nil
}

// Enabled returns whether this analyzer is enabled.
func (a *GeolocationAnalyzer) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled enables or disables the analyzer.
func (a *GeolocationAnalyzer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Config returns the current configuration.
func (a *GeolocationAnalyzer) Config() GeolocationConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}
