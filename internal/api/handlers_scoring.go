// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/surveyguard/internal/behavior"
	"github.com/tomtom215/surveyguard/internal/fraud"
	"github.com/tomtom215/surveyguard/internal/history"
	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/models"
	"github.com/tomtom215/surveyguard/internal/quality"
	"github.com/tomtom215/surveyguard/internal/scoring"
)

// AnalyzeBehavior returns the behavioral verdict for an event batch.
//
// POST /api/v1/sessions/{id}/behavior
func (h *Handler) AnalyzeBehavior(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sessionID := chi.URLParam(r, "id")
	ctx := logging.ContextWithSessionID(r.Context(), sessionID)

	var req BehaviorRequest
	if !decodeJSON(rw, r, &req) {
		return
	}

	result, err := h.engine.Behavior().Analyze(ctx, sessionID, req.Events)
	if err != nil {
		h.analysisError(rw, err)
		return
	}
	rw.Success(result)
}

// AnalyzeFraud returns the fraud verdict for a session context. The session
// ID in the body may be omitted; when present it must match the path.
//
// POST /api/v1/sessions/{id}/fraud
func (h *Handler) AnalyzeFraud(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var session models.SessionContext
	if !h.decodeSession(rw, r, &session, &session) {
		return
	}
	ctx := logging.ContextWithSessionID(r.Context(), session.SessionID)

	ind, err := h.engine.Fraud().Analyze(ctx, &session)
	if err != nil {
		h.analysisError(rw, err)
		return
	}
	rw.Success(ind)
}

// ScoreSession runs the full pipeline and returns the SessionReport.
//
// POST /api/v1/sessions/{id}/score
func (h *Handler) ScoreSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req scoring.Request
	if !h.decodeSession(rw, r, &req, &req.Session) {
		return
	}

	report, err := h.engine.ScoreSession(r.Context(), &req)
	if err != nil {
		h.analysisError(rw, err)
		return
	}
	rw.Success(report)
}

// decodeSession decodes body into dst, reconciles session.SessionID with the
// path and then validates dst.
func (h *Handler) decodeSession(rw *ResponseWriter, r *http.Request, dst interface{}, session *models.SessionContext) bool {
	data, ok := readBody(rw, r)
	if !ok {
		return false
	}
	if err := unmarshalBody(data, dst); err != nil {
		rw.BadRequest(ErrCodeInvalidJSON, "Invalid JSON: "+err.Error())
		return false
	}

	pathID := chi.URLParam(r, "id")
	switch session.SessionID {
	case "":
		session.SessionID = pathID
	case pathID:
	default:
		rw.BadRequest(ErrCodeSessionMismatch, "session_id in body does not match the path")
		return false
	}
	return validateBody(rw, dst)
}

// AnalyzeGrid analyzes grid responses for straight-lining and geometric patterns.
//
// POST /api/v1/quality/grid
func (h *Handler) AnalyzeGrid(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req GridRequest
	if !decodeJSON(rw, r, &req) {
		return
	}

	analyses, err := h.engine.Grid().AnalyzeAll(req.Responses)
	if err != nil {
		h.analysisError(rw, err)
		return
	}
	rw.Success(analyses)
}

// AnalyzeTiming flags speeders and flatliners.
//
// POST /api/v1/quality/timing
func (h *Handler) AnalyzeTiming(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req TimingRequest
	if !decodeJSON(rw, r, &req) {
		return
	}

	analyses, err := h.engine.Timing().Analyze(req.Timings)
	if err != nil {
		h.analysisError(rw, err)
		return
	}
	rw.Success(analyses)
}

// CalculateComposite combines a behavioral score with text-quality scores.
//
// POST /api/v1/composite
func (h *Handler) CalculateComposite(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CompositeRequest
	if !decodeJSON(rw, r, &req) {
		return
	}

	rw.Success(h.engine.Composite().Calculate(*req.BehavioralScore, req.Quality))
}

// SetGeolocation stores the country resolved for an IP address, which the
// geolocation analyzer reads for later sessions.
//
// PUT /api/v1/geolocations/{ip}
func (h *Handler) SetGeolocation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.geo == nil {
		rw.Error(http.StatusNotImplemented, ErrCodeStoreReadOnly, "Geolocation writes are not configured")
		return
	}

	var req GeolocationRequest
	data, ok := readBody(rw, r)
	if !ok {
		return
	}
	if err := unmarshalBody(data, &req); err != nil {
		rw.BadRequest(ErrCodeInvalidJSON, "Invalid JSON: "+err.Error())
		return
	}
	req.IP = chi.URLParam(r, "ip")
	if !validateBody(rw, &req) {
		return
	}

	if err := h.geo.SetGeolocation(r.Context(), req.IP, req.Country); err != nil {
		if errors.Is(err, history.ErrReadOnly) {
			rw.Error(http.StatusNotImplemented, ErrCodeStoreReadOnly, "History store does not accept writes")
			return
		}
		h.analysisError(rw, err)
		return
	}
	rw.Success(map[string]string{"ip": req.IP, "country": req.Country})
}

// analysisError maps engine errors to responses.
func (h *Handler) analysisError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, behavior.ErrNoBehaviorData), errors.Is(err, quality.ErrNoResponses):
		rw.Error(http.StatusUnprocessableEntity, ErrCodeNoData, err.Error())
	case errors.Is(err, scoring.ErrMissingSession), errors.Is(err, fraud.ErrMissingSession):
		rw.BadRequest(ErrCodeBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		rw.Error(http.StatusGatewayTimeout, ErrCodeTimeout, "Analysis timed out")
	case errors.Is(err, context.Canceled):
		rw.ServiceUnavailable("Request canceled")
	default:
		rw.InternalError(err)
	}
}
