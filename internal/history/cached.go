// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package history

import (
	"context"
	"strings"
	"time"

	"github.com/tomtom215/surveyguard/internal/cache"
	"github.com/tomtom215/surveyguard/internal/fraud"
	"github.com/tomtom215/surveyguard/internal/metrics"
	"github.com/tomtom215/surveyguard/internal/models"
)

const countryCacheType = "country"

// CachedStore caches IP-to-country resolution. Unknown countries are not
// cached so a later SetGeolocation is visible on the next lookup.
type CachedStore struct {
	inner     fraud.HistoryStore
	countries *cache.LRU[string, string]
}

var _ fraud.HistoryStore = (*CachedStore)(nil)

// NewCachedStore wraps inner with a country cache of the given size and TTL.
func NewCachedStore(inner fraud.HistoryStore, capacity int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		inner:     inner,
		countries: cache.NewLRU[string, string](capacity, ttl),
	}
}

// ResolveCountryFromIP implements fraud.HistoryStore.
func (s *CachedStore) ResolveCountryFromIP(ctx context.Context, ip string) (string, error) {
	key := strings.TrimSpace(ip)
	if country, ok := s.countries.Get(key); ok {
		metrics.RecordCacheLookup(countryCacheType, true)
		return country, nil
	}
	metrics.RecordCacheLookup(countryCacheType, false)

	country, err := s.inner.ResolveCountryFromIP(ctx, ip)
	if err != nil {
		return "", err
	}
	if country != "" {
		s.countries.Add(key, country)
		s.reportSize()
	}
	return country, nil
}

// CountSessionsByIP implements fraud.HistoryStore.
func (s *CachedStore) CountSessionsByIP(ctx context.Context, ip, excludeSessionID string, window time.Duration) (int, error) {
	return s.inner.CountSessionsByIP(ctx, ip, excludeSessionID, window)
}

// CountSessionsByFingerprint implements fraud.HistoryStore.
func (s *CachedStore) CountSessionsByFingerprint(ctx context.Context, fingerprint, excludeSessionID string, window time.Duration) (int, error) {
	return s.inner.CountSessionsByFingerprint(ctx, fingerprint, excludeSessionID, window)
}

// CountSessionsByRespondent implements fraud.HistoryStore.
func (s *CachedStore) CountSessionsByRespondent(ctx context.Context, respondentID, excludeSessionID string, window time.Duration) (int, error) {
	return s.inner.CountSessionsByRespondent(ctx, respondentID, excludeSessionID, window)
}

// FetchOtherResponsesInSurvey implements fraud.HistoryStore.
func (s *CachedStore) FetchOtherResponsesInSurvey(ctx context.Context, surveyID, excludeSessionID string) ([]fraud.ResponseRecord, error) {
	return s.inner.FetchOtherResponsesInSurvey(ctx, surveyID, excludeSessionID)
}

// FetchRespondentCountries implements fraud.HistoryStore.
func (s *CachedStore) FetchRespondentCountries(ctx context.Context, respondentID, excludeSessionID string, window time.Duration) ([]string, error) {
	return s.inner.FetchRespondentCountries(ctx, respondentID, excludeSessionID, window)
}

// RecordSession forwards to the inner store.
func (s *CachedStore) RecordSession(ctx context.Context, session *models.SessionContext) error {
	return recordThrough(ctx, s.inner, session)
}

// SetGeolocation writes through and refreshes the cached entry.
func (s *CachedStore) SetGeolocation(ctx context.Context, ip, country string) error {
	if err := setGeolocationThrough(ctx, s.inner, ip, country); err != nil {
		return err
	}
	key := strings.TrimSpace(ip)
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		s.countries.Remove(key)
	} else {
		s.countries.Add(key, country)
	}
	s.reportSize()
	return nil
}

// CleanupExpired drops expired countries and returns how many were removed.
// The supervisor's cache janitor calls it periodically.
func (s *CachedStore) CleanupExpired() int {
	n := s.countries.CleanupExpired()
	if n > 0 {
		metrics.CacheEvictions.WithLabelValues(countryCacheType).Add(float64(n))
	}
	s.reportSize()
	return n
}

// Stats returns the country cache statistics.
func (s *CachedStore) Stats() cache.Stats {
	return s.countries.Stats()
}

func (s *CachedStore) reportSize() {
	metrics.CacheSize.WithLabelValues(countryCacheType).Set(float64(s.countries.Len()))
}
