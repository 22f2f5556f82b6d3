// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package database

import (
	"context"
	"fmt"
)

// createTables creates the history tables. Only primary keys are indexed:
// DuckDB rejects ON CONFLICT updates of columns covered by a secondary index,
// and the window scans are served by zonemaps on started_at.
func (db *DB) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			survey_id TEXT NOT NULL,
			respondent_id TEXT,
			ip_address TEXT,
			fingerprint TEXT,
			started_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS responses (
			session_id TEXT NOT NULL,
			survey_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			recorded_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS geolocations (
			ip_address TEXT PRIMARY KEY,
			country TEXT NOT NULL,
			last_updated TIMESTAMP NOT NULL
		)`,
	}

	for _, q := range queries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
