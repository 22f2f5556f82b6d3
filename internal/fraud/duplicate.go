// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/surveyguard/internal/models"
)

// DuplicateAnalyzer compares the session's free-text answers with every other
// answer in the same survey.
type DuplicateAnalyzer struct {
	store   HistoryStore
	config  DuplicateConfig
	enabled bool
	mu      sync.RWMutex
}

// NewDuplicateAnalyzer creates a duplicate response analyzer.
func NewDuplicateAnalyzer(store HistoryStore) *DuplicateAnalyzer {
	return &DuplicateAnalyzer{
		store:   store,
		config:  DefaultDuplicateConfig(),
		enabled: true,
	}
}

// Signal returns the signal name.
func (a *DuplicateAnalyzer) Signal() string {
	return SignalDuplicate
}

// Analyze tracks the maximum pairwise similarity and the number of pairs at or
// above the duplicate threshold. Risk = max similarity.
func (a *DuplicateAnalyzer) Analyze(ctx context.Context, session *models.SessionContext) Finding {
	a.mu.RLock()
	config := a.config
	a.mu.RUnlock()

	if session == nil || session.SurveyID == "" {
		return Finding{Signal: SignalDuplicate}
	}

	own := make([]TokenSet, 0, len(session.Responses))
	for _, text := range session.Responses {
		if set := Tokenize(text); len(set) >= config.MinTokens {
			own = append(own, set)
		}
	}
	if len(own) == 0 {
		return Finding{Signal: SignalDuplicate}
	}

	others, err := lookup(ctx, millis(config.LookupTimeoutMs), func(ctx context.Context) ([]ResponseRecord, error) {
		return a.store.FetchOtherResponsesInSurvey(ctx, session.SurveyID, session.SessionID)
	})
	if err != nil {
		return degraded(ctx, SignalDuplicate, err)
	}

	finding := Finding{Signal: SignalDuplicate}
	for _, rec := range others {
		if rec.SessionID == session.SessionID {
			continue
		}
		theirs := Tokenize(rec.Text)
		if len(theirs) < config.MinTokens {
			continue
		}
		for _, mine := range own {
			sim := Jaccard(mine, theirs)
			if sim > finding.MaxSimilarity {
				finding.MaxSimilarity = sim
			}
			if sim >= config.DuplicateThreshold {
				finding.DuplicateCount++
			}
		}
	}
	finding.Risk = finding.MaxSimilarity
	finding.Count = len(others)

	return finding
}

// Configure updates the analyzer configuration.
func (a *DuplicateAnalyzer) Configure(config json.RawMessage) error {
	newConfig := DefaultDuplicateConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if newConfig.DuplicateThreshold <= 0 || newConfig.DuplicateThreshold > 1 {
		return fmt.Errorf("duplicate_threshold must be in (0,1]")
	}
	if newConfig.MinTokens < 1 {
		return fmt.Errorf("min_tokens must be at least 1")
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
func (a *DuplicateAnalyzer) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled enables or disables the analyzer.
func (a *DuplicateAnalyzer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Config returns the current configuration.
func (a *DuplicateAnalyzer) Config() DuplicateConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}
