// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package history

import (
	"context"
	"errors"

	"github.com/tomtom215/surveyguard/internal/models"
)

var (
	// ErrStoreClosed is returned by a store after Close.
	ErrStoreClosed = errors.New("history store is closed")

	// ErrRateLimited is returned when the lookup rate limit is exhausted.
	ErrRateLimited = errors.New("history store rate limit exceeded")

	// ErrReadOnly is returned when a write reaches a store without a writer beneath it.
	ErrReadOnly = errors.New("history store does not accept writes")
)

// Recorder persists a scored session.
type Recorder interface {
	RecordSession(ctx context.Context, session *models.SessionContext) error
}

// GeoWriter stores the country resolved for an IP address.
type GeoWriter interface {
	SetGeolocation(ctx context.Context, ip, country string) error
}

func recordThrough(ctx context.Context, inner interface{}, session *models.SessionContext) error {
	r, ok := inner.(Recorder)
	if !ok {
		return ErrReadOnly
	}
	return r.RecordSession(ctx, session)
}

func setGeolocationThrough(ctx context.Context, inner interface{}, ip, country string) error {
	w, ok := inner.(GeoWriter)
	if !ok {
		return ErrReadOnly
	}
	return w.SetGeolocation(ctx, ip, country)
}
