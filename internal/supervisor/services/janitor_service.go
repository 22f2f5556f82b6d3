// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package services

import (
	"context"
	"time"

	"github.com/tomtom215/surveyguard/internal/logging"
)

// Janitor is satisfied by *history.CachedStore.
type Janitor interface {
	CleanupExpired() int
}

// CacheJanitorService periodically removes expired cache entries.
type CacheJanitorService struct {
	janitor  Janitor
	interval time.Duration
	name     string
}

// NewCacheJanitorService sweeps janitor every interval. A non-positive
// interval defaults to five minutes.
func NewCacheJanitorService(janitor Janitor, interval time.Duration) *CacheJanitorService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CacheJanitorService{
		janitor:  janitor,
		interval: interval,
		name:     "cache-janitor",
	}
}

// Serve sweeps on every tick until ctx is canceled.
func (j *CacheJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := j.janitor.CleanupExpired(); n > 0 {
				logging.Debug().Str("service", j.name).Int("evicted", n).Msg("Expired cache entries removed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (j *CacheJanitorService) String() string {
	return j.name
}
