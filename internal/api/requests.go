// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/surveyguard/internal/models"
	"github.com/tomtom215/surveyguard/internal/validation"
)

// BehaviorRequest is the body of POST /sessions/{id}/behavior.
type BehaviorRequest struct {
	Events []models.InteractionEvent `json:"events" validate:"dive"`
}

// GridRequest is the body of POST /quality/grid.
type GridRequest struct {
	Responses []models.GridResponse `json:"responses" validate:"dive"`
}

// TimingRequest is the body of POST /quality/timing.
type TimingRequest struct {
	Timings []models.QuestionTiming `json:"timings" validate:"dive"`
}

// CompositeRequest is the body of POST /composite.
type CompositeRequest struct {
	BehavioralScore *float64              `json:"behavioral_score" validate:"required,finite,gte=0,lte=1"`
	Quality         []models.QualityInput `json:"quality,omitempty" validate:"dive"`
}

// GeolocationRequest is the body of PUT /geolocations/{ip}. IP comes from the path.
type GeolocationRequest struct {
	IP      string `json:"-" validate:"required,ip"`
	Country string `json:"country" validate:"required,iso3166_1_alpha2"`
}

// EnabledRequest is the body of the analyzer enable toggles.
type EnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// decodeJSON decodes the body into dst and validates it. On failure the
// error response has already been written and false is returned.
func decodeJSON(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	data, ok := readBody(rw, r)
	if !ok {
		return false
	}
	if err := unmarshalBody(data, dst); err != nil {
		rw.BadRequest(ErrCodeInvalidJSON, "Invalid JSON: "+err.Error())
		return false
	}
	return validateBody(rw, dst)
}

func unmarshalBody(data []byte, dst interface{}) error {
	return json.Unmarshal(data, dst)
}

func readBody(rw *ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		rw.BadRequest(ErrCodeInvalidJSON, "Request body is empty")
		return nil, false
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
				fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit))
			return nil, false
		}
		rw.BadRequest(ErrCodeBadRequest, "Failed to read request body")
		return nil, false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		rw.BadRequest(ErrCodeInvalidJSON, "Request body is empty")
		return nil, false
	}
	return data, true
}

// validateBody runs struct validation and writes the error response on failure.
func validateBody(rw *ResponseWriter, v interface{}) bool {
	if verr := validation.ValidateStruct(v); verr != nil {
		rw.ValidationError(verr)
		return false
	}
	return true
}

// readRawJSON reads a body that is handed to a Configure method unparsed.
func readRawJSON(rw *ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	data, ok := readBody(rw, r)
	if !ok {
		return nil, false
	}
	if !json.Valid(data) {
		rw.BadRequest(ErrCodeInvalidJSON, "Request body must be valid JSON")
		return nil, false
	}
	return json.RawMessage(data), true
}
