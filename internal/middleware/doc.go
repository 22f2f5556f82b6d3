// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

// Package middleware provides HTTP middleware shared by the API router.
//
// PrometheusMetrics records request counts, latencies and in-flight requests.
// Requests are labelled by their chi route pattern rather than the raw path,
// so "/api/v1/sessions/abc/score" and "/api/v1/sessions/def/score" share the
// series "/api/v1/sessions/{id}/score".
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(middleware.PrometheusMetrics)
package middleware
