// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package metrics provides Prometheus metrics collection and export for observability.

Collectors are registered on the default registry through promauto at package
init and exposed by the API router at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Scoring:
  - surveyguard_analysis_duration_seconds{kind}: behavior, fraud and session analyses
  - surveyguard_analyzer_score{analyzer}: sub-score distribution per analyzer
  - surveyguard_analyzer_insufficient_data_total{analyzer}: neutral fallbacks
  - surveyguard_classifications_total{kind,verdict,risk_level}
  - surveyguard_quality_flags_total{flag}: straight_lined, speeder, flatliner

History store:
  - surveyguard_store_lookup_duration_seconds{operation}
  - surveyguard_store_lookup_errors_total{operation}
  - surveyguard_store_rate_limited_total{operation}
  - surveyguard_lookup_fallbacks_total{signal}
  - duckdb_query_duration_seconds{operation,table}
  - redis_command_duration_seconds{operation}

Infrastructure:
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - cache_hits_total, cache_misses_total, cache_entries, cache_evictions_total
  - circuit_breaker_state (0=closed, 1=half-open, 2=open)
  - surveyguard_events_published_total{topic}

# Usage

Helpers wrap the label plumbing:

	start := time.Now()
	result, err := engine.Analyze(ctx, sessionID, events)
	metrics.RecordAnalysis("behavior", time.Since(start), err)

All helpers are safe for concurrent use.
*/
package metrics
