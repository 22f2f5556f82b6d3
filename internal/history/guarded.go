// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package history

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/surveyguard/internal/config"
	"github.com/tomtom215/surveyguard/internal/fraud"
	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/metrics"
	"github.com/tomtom215/surveyguard/internal/models"
)

// GuardedStore protects the stores beneath it. Lookups past the token bucket
// fail fast with ErrRateLimited; after consecutive failures the breaker opens
// and lookups fail with gobreaker.ErrOpenState until the timeout elapses.
// Either error degrades the fraud signal that asked.
type GuardedStore struct {
	inner   fraud.HistoryStore
	breaker *gobreaker.CircuitBreaker[interface{}]
	limiter *rate.Limiter
	name    string
}

var _ fraud.HistoryStore = (*GuardedStore)(nil)

// NewGuardedStore wraps inner with the breaker and limiter described by cfg.
// A non-positive RateLimit disables rate limiting.
func NewGuardedStore(inner fraud.HistoryStore, cfg config.StoreConfig) *GuardedStore {
	name := cfg.BreakerName
	if name == "" {
		name = "history-store"
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Cancellations come from the caller's lookup timeout, not the store.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("History store circuit breaker changed state")
		},
	}

	limit := rate.Inf
	burst := cfg.RateBurst
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		if burst <= 0 {
			burst = 1
		}
	}

	return &GuardedStore{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[interface{}](settings),
		limiter: rate.NewLimiter(limit, burst),
		name:    name,
	}
}

// State returns the breaker state: "closed", "half-open" or "open".
func (g *GuardedStore) State() string {
	return g.breaker.State().String()
}

func guard[T any](ctx context.Context, g *GuardedStore, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if !g.limiter.Allow() {
		metrics.StoreRateLimited.WithLabelValues(operation).Inc()
		metrics.RecordStoreLookup(operation, 0, ErrRateLimited)
		return zero, ErrRateLimited
	}

	start := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	metrics.RecordStoreLookup(operation, time.Since(start), err)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCircuitBreakerRequest(g.name, "rejected")
		return zero, err
	case err != nil:
		metrics.RecordCircuitBreakerRequest(g.name, "failure")
		return zero, err
	}
	metrics.RecordCircuitBreakerRequest(g.name, "success")

	v, ok := out.(T)
	if !ok {
		return zero, nil
	}
	return v, nil
}

// CountSessionsByIP implements fraud.HistoryStore.
func (g *GuardedStore) CountSessionsByIP(ctx context.Context, ip, excludeSessionID string, window time.Duration) (int, error) {
	return guard(ctx, g, "count_by_ip", func(ctx context.Context) (int, error) {
		return g.inner.CountSessionsByIP(ctx, ip, excludeSessionID, window)
	})
}

// CountSessionsByFingerprint implements fraud.HistoryStore.
func (g *GuardedStore) CountSessionsByFingerprint(ctx context.Context, fingerprint, excludeSessionID string, window time.Duration) (int, error) {
	return guard(ctx, g, "count_by_fingerprint", func(ctx context.Context) (int, error) {
		return g.inner.CountSessionsByFingerprint(ctx, fingerprint, excludeSessionID, window)
	})
}

// CountSessionsByRespondent implements fraud.HistoryStore.
func (g *GuardedStore) CountSessionsByRespondent(ctx context.Context, respondentID, excludeSessionID string, window time.Duration) (int, error) {
	return guard(ctx, g, "count_by_respondent", func(ctx context.Context) (int, error) {
		return g.inner.CountSessionsByRespondent(ctx, respondentID, excludeSessionID, window)
	})
}

// FetchOtherResponsesInSurvey implements fraud.HistoryStore.
func (g *GuardedStore) FetchOtherResponsesInSurvey(ctx context.Context, surveyID, excludeSessionID string) ([]fraud.ResponseRecord, error) {
	return guard(ctx, g, "fetch_responses", func(ctx context.Context) ([]fraud.ResponseRecord, error) {
		return g.inner.FetchOtherResponsesInSurvey(ctx, surveyID, excludeSessionID)
	})
}

// ResolveCountryFromIP implements fraud.HistoryStore.
func (g *GuardedStore) ResolveCountryFromIP(ctx context.Context, ip string) (string, error) {
	return guard(ctx, g, "resolve_country", func(ctx context.Context) (string, error) {
		return g.inner.ResolveCountryFromIP(ctx, ip)
	})
}

// FetchRespondentCountries implements fraud.HistoryStore.
func (g *GuardedStore) FetchRespondentCountries(ctx context.Context, respondentID, excludeSessionID string, window time.Duration) ([]string, error) {
	return guard(ctx, g, "fetch_countries", func(ctx context.Context) ([]string, error) {
		return g.inner.FetchRespondentCountries(ctx, respondentID, excludeSessionID, window)
	})
}

// RecordSession forwards writes without rate limiting; they still count
// toward the breaker.
func (g *GuardedStore) RecordSession(ctx context.Context, session *models.SessionContext) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, recordThrough(ctx, g.inner, session)
	})
	return err
}

// SetGeolocation forwards to the inner store.
func (g *GuardedStore) SetGeolocation(ctx context.Context, ip, country string) error {
	return setGeolocationThrough(ctx, g.inner, ip, country)
}
