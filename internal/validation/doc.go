// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

// Package validation validates API request bodies with go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata, so the first validation of a type is the slowest. Fields are
// reported by their JSON path rather than the Go field name:
//
//	session.ip_address must be a valid IP address
//	timings[2].response_time_ms must be greater than or equal to 0
//
// Besides the built-in tags, "finite" rejects NaN and ±Inf floats.
//
// Handlers convert failures to the VALIDATION_ERROR response body:
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
package validation
