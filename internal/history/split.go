// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package history

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/surveyguard/internal/fraud"
	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/metrics"
	"github.com/tomtom215/surveyguard/internal/models"
)

// SplitStore answers trailing-window counts from a RedisCounter and every
// other query from the durable store. A failed Redis count falls back to the
// durable store.
type SplitStore struct {
	durable fraud.HistoryStore
	counter *RedisCounter
}

var _ fraud.HistoryStore = (*SplitStore)(nil)

// NewSplitStore combines durable with counter. A nil counter sends every
// query to durable.
func NewSplitStore(durable fraud.HistoryStore, counter *RedisCounter) *SplitStore {
	return &SplitStore{durable: durable, counter: counter}
}

// CountSessionsByIP implements fraud.HistoryStore.
func (s *SplitStore) CountSessionsByIP(ctx context.Context, ip, excludeSessionID string, window time.Duration) (int, error) {
	return s.count(ctx, DimensionIP, ip, excludeSessionID, window, s.durable.CountSessionsByIP)
}

// CountSessionsByFingerprint implements fraud.HistoryStore.
func (s *SplitStore) CountSessionsByFingerprint(ctx context.Context, fingerprint, excludeSessionID string, window time.Duration) (int, error) {
	return s.count(ctx, DimensionFingerprint, fingerprint, excludeSessionID, window, s.durable.CountSessionsByFingerprint)
}

// CountSessionsByRespondent implements fraud.HistoryStore.
func (s *SplitStore) CountSessionsByRespondent(ctx context.Context, respondentID, excludeSessionID string, window time.Duration) (int, error) {
	return s.count(ctx, DimensionRespondent, respondentID, excludeSessionID, window, s.durable.CountSessionsByRespondent)
}

func (s *SplitStore) count(ctx context.Context, dimension, value, excludeSessionID string, window time.Duration,
	durable func(context.Context, string, string, time.Duration) (int, error)) (int, error) {
	if s.counter != nil && s.counter.Serves(window) {
		n, err := s.counter.Count(ctx, dimension, value, excludeSessionID, window)
		if err == nil {
			return n, nil
		}
		if ctx.Err() != nil {
			return 0, err
		}
		metrics.RecordLookupFallback("redis_" + dimension)
		logging.Ctx(ctx).Warn().Err(err).Str("dimension", dimension).Msg("Redis count failed, falling back to durable store")
	}
	return durable(ctx, value, excludeSessionID, window)
}

// FetchOtherResponsesInSurvey implements fraud.HistoryStore.
func (s *SplitStore) FetchOtherResponsesInSurvey(ctx context.Context, surveyID, excludeSessionID string) ([]fraud.ResponseRecord, error) {
	return s.durable.FetchOtherResponsesInSurvey(ctx, surveyID, excludeSessionID)
}

// ResolveCountryFromIP implements fraud.HistoryStore.
func (s *SplitStore) ResolveCountryFromIP(ctx context.Context, ip string) (string, error) {
	return s.durable.ResolveCountryFromIP(ctx, ip)
}

// FetchRespondentCountries implements fraud.HistoryStore.
func (s *SplitStore) FetchRespondentCountries(ctx context.Context, respondentID, excludeSessionID string, window time.Duration) ([]string, error) {
	return s.durable.FetchRespondentCountries(ctx, respondentID, excludeSessionID, window)
}

// RecordSession writes the session to the durable store, then to Redis.
// A Redis failure is logged; the durable store stays authoritative.
func (s *SplitStore) RecordSession(ctx context.Context, session *models.SessionContext) error {
	if err := recordThrough(ctx, s.durable, session); err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	if s.counter != nil {
		if err := s.counter.Record(ctx, session); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to record session in Redis")
		}
	}
	return nil
}

// SetGeolocation forwards to the durable store.
func (s *SplitStore) SetGeolocation(ctx context.Context, ip, country string) error {
	return setGeolocationThrough(ctx, s.durable, ip, country)
}
