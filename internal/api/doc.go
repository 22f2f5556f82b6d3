// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package api exposes the scoring engine over HTTP using the chi router.

# Endpoints

Scoring (rate limited, JSON bodies, validated with go-playground/validator):

	POST /api/v1/sessions/{id}/behavior   behavioral verdict for an event batch
	POST /api/v1/sessions/{id}/fraud      fraud verdict for a session context
	POST /api/v1/sessions/{id}/score      full SessionReport (errgroup fan-out)
	POST /api/v1/quality/grid             grid straight-lining and pattern analysis
	POST /api/v1/quality/timing           speeder and flatliner detection
	POST /api/v1/composite                composite risk from behavior and text quality
	PUT  /api/v1/geolocations/{ip}        store the country resolved for an IP

Runtime configuration:

	GET  /api/v1/config
	PUT  /api/v1/config/behavior/aggregator
	PUT  /api/v1/config/behavior/analyzers/{method}
	PUT  /api/v1/config/behavior/analyzers/{method}/enabled
	PUT  /api/v1/config/fraud/aggregator
	PUT  /api/v1/config/fraud/analyzers/{signal}
	PUT  /api/v1/config/fraud/analyzers/{signal}/enabled
	PUT  /api/v1/config/quality/grid
	PUT  /api/v1/config/quality/timing
	PUT  /api/v1/config/composite
	GET  /api/v1/stats

Operations:

	GET /api/v1/health         dependency checks, always 200
	GET /api/v1/health/live    liveness probe
	GET /api/v1/health/ready   503 while a critical dependency is down
	GET /metrics               Prometheus exposition
	GET /api/v1/stream         WebSocket verdict stream, when result events are enabled

# Responses

Every JSON response uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "VALIDATION_ERROR", "message": "..."}}

# Middleware

The global stack is RequestIDWithLogging, RealIP, Recoverer and CORS. API groups
add per-IP rate limiting (go-chi/httprate), security headers, a request timeout
and Prometheus instrumentation. Request bodies are capped by
SecurityConfig.MaxBodyBytes.
*/
package api
