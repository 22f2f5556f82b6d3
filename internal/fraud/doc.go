// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package fraud scores a survey session for duplicate-respondent and fraud risk.

Five analyzers each combine the current session with historical facts read
through the HistoryStore interface:

  - ip_reuse: step function of the sessions sharing this IP, all time and in the last 24h
  - fingerprint_reuse: step function of prior sessions with the same device fingerprint
  - duplicate_response: maximum token-jaccard-v1 similarity against other answers in the survey
  - geolocation: country mismatch against the respondent's sessions in the trailing hour
  - velocity: saturating function of the busiest identifier in the trailing hour

The Aggregator combines the five risks with weights 0.25/0.25/0.20/0.15/0.15
into an overall score, a duplicate flag (score >= 0.7) and per-signal flag
reasons with medium/high severity.

# Degraded Lookups

Every store call runs under the analyzer's lookup timeout. A lookup that
times out or fails yields zero risk for that signal and records the signal in
FraudIndicator.DegradedSignals; the session is still scored.

# Usage

	engine := fraud.NewEngine(store, fraud.DefaultAggregatorConfig())
	engine.RegisterDefaults()
	indicator, err := engine.Analyze(ctx, session)

The store is typically a history.GuardedStore wrapping DuckDB, Redis and a
country cache. Tests use hand-written fakes.
*/
package fraud
