// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

// Package database is the DuckDB-backed session history used by the fraud
// analyzers.
//
// # Tables
//
//   - sessions: one row per scored session (survey, respondent, IP, device fingerprint, start time)
//   - responses: free-text answers, compared across sessions of the same survey
//   - geolocations: IP to ISO country code, populated by an external resolver
//
// # Reads
//
// DB implements fraud.HistoryStore: windowed session counts by IP, fingerprint
// and respondent, the other answers in a survey, country resolution and the
// countries a respondent used recently. A window of 0 means all time.
//
// # Writes
//
// RecordSession stores a session and its answers in one transaction after it
// has been scored, so counts always describe prior sessions. SetGeolocation
// upserts a country under a per-IP lock and retries DuckDB transaction
// conflicts with exponential backoff.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	engine := fraud.NewEngine(db, fraud.DefaultAggregatorConfig())
//
// Tests open the store with Path ":memory:".
package database
