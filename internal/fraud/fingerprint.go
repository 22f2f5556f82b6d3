// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/blake2b"

	"github.com/tomtom215/surveyguard/internal/models"
)

// DeriveFingerprint hashes the session's device attributes with BLAKE2b-256.
// Attributes are trimmed, lower-cased and hashed in a fixed key order, so the
// result is stable across collectors that vary casing or whitespace.
// It returns "" when the session carries no device attributes.
func DeriveFingerprint(session *models.SessionContext) string {
	if session == nil {
		return ""
	}

	attrs := map[string]string{
		"user_agent":    session.UserAgent,
		"screen":        session.ScreenSize,
		"viewport":      session.ViewportSize,
		"timezone":      session.Timezone,
		"language":      session.Language,
		"platform":      session.Platform,
		"color_depth":   positiveInt(session.ColorDepth),
		"hardware_conc": positiveInt(session.HardwareConcur),
	}

	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		v = strings.ToLower(strings.TrimSpace(v))
		attrs[k] = v
		if v != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(attrs[k])
		b.WriteByte('\n')
	}

	sum := blake2b.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func positiveInt(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// SessionFingerprint returns the caller-supplied fingerprint, or derives one.
func SessionFingerprint(session *models.SessionContext) string {
	if session == nil {
		return ""
	}
	if fp := strings.TrimSpace(session.Fingerprint); fp != "" {
		return fp
	}
	return DeriveFingerprint(session)
}

// FingerprintAnalyzer scores reuse of a device fingerprint across sessions.
type FingerprintAnalyzer struct {
	store   HistoryStore
	config  FingerprintConfig
	enabled bool
	mu      sync.RWMutex
}

// NewFingerprintAnalyzer creates a fingerprint reuse analyzer.
func NewFingerprintAnalyzer(store HistoryStore) *FingerprintAnalyzer {
	return &FingerprintAnalyzer{
		store:   store,
		config:  DefaultFingerprintConfig(),
		enabled: true,
	}
}

// Signal returns the signal name.
func (a *FingerprintAnalyzer) Signal() string {
	return SignalFingerprintReuse
}

// Analyze scores how many prior sessions used the same fingerprint.
func (a *FingerprintAnalyzer) Analyze(ctx context.Context, session *models.SessionContext) Finding {
	a.mu.RLock()
	config := a.config
	a.mu.RUnlock()

	fp := SessionFingerprint(session)
	if fp == "" {
		return Finding{Signal: SignalFingerprintReuse}
	}

	count, err := lookup(ctx, millis(config.LookupTimeoutMs), func(ctx context.Context) (int, error) {
		return a.store.CountSessionsByFingerprint(ctx, fp, session.SessionID, 0)
	})
	if err != nil {
		f := degraded(ctx, SignalFingerprintReuse, err)
		f.Fingerprint = fp
		return f
	}

	return Finding{
		Signal:      SignalFingerprintReuse,
		Risk:        stepRisk(config.Tiers, count),
		Count:       count,
		Fingerprint: fp,
	}
}

// Configure updates the analyzer configuration.
func (a *FingerprintAnalyzer) Configure(config json.RawMessage) error {
	newConfig := DefaultFingerprintConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateTiers("tiers", newConfig.Tiers); err != nil {
		return err
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
func (a *FingerprintAnalyzer) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled enables or disables the analyzer.
func (a *FingerprintAnalyzer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Config returns the current configuration.
func (a *FingerprintAnalyzer) Config() FingerprintConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}
