// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"context"
	"time"

	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/metrics"
)

// lookup runs fn with a context bounded by timeout and returns at the
// deadline even if fn has not.
func lookup[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(lctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-lctx.Done():
		var zero T
		return zero, lctx.Err()
	}
}

// degraded builds the fallback finding for a failed lookup.
func degraded(ctx context.Context, signal string, err error) Finding {
	metrics.RecordLookupFallback(signal)
	logging.Ctx(ctx).Warn().Err(err).Str("signal", signal).Msg("fraud lookup failed, using fallback risk")
	return Finding{Signal: signal, Degraded: true, Consistent: true}
}
