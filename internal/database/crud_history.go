// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/surveyguard/internal/fraud"
)

var _ fraud.HistoryStore = (*DB)(nil)

// CountSessionsByIP counts recorded sessions from ip within window, other than excludeSessionID.
func (db *DB) CountSessionsByIP(ctx context.Context, ip, excludeSessionID string, window time.Duration) (int, error) {
	return db.countSessions(ctx, "count_by_ip", "ip_address", ip, excludeSessionID, window)
}

// CountSessionsByFingerprint counts recorded sessions with the device fingerprint within window.
func (db *DB) CountSessionsByFingerprint(ctx context.Context, fingerprint, excludeSessionID string, window time.Duration) (int, error) {
	return db.countSessions(ctx, "count_by_fingerprint", "fingerprint", fingerprint, excludeSessionID, window)
}

// CountSessionsByRespondent counts recorded sessions of the respondent within window.
func (db *DB) CountSessionsByRespondent(ctx context.Context, respondentID, excludeSessionID string, window time.Duration) (int, error) {
	return db.countSessions(ctx, "count_by_respondent", "respondent_id", respondentID, excludeSessionID, window)
}

// countSessions backs the three counters. column is one of a fixed set of
// identifiers chosen by the callers above, never user input.
func (db *DB) countSessions(ctx context.Context, operation, column, value, excludeSessionID string, window time.Duration) (int, error) {
	if err := db.checkOpen(); err != nil {
		return 0, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM sessions WHERE %s = ?`, column)
	args := []interface{}{value}
	if excludeSessionID != "" {
		query += ` AND session_id <> ?`
		args = append(args, excludeSessionID)
	}
	if since, ok := db.since(window); ok {
		query += ` AND started_at >= ?`
		args = append(args, since)
	}

	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(&count)
	observe(operation, "sessions", start, err)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	return count, nil
}

// FetchOtherResponsesInSurvey returns the most recent answers of other sessions
// in the survey, capped at the configured comparison limit.
func (db *DB) FetchOtherResponsesInSurvey(ctx context.Context, surveyID, excludeSessionID string) ([]fraud.ResponseRecord, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	if surveyID == "" {
		return nil, nil
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT session_id, text FROM responses
		WHERE survey_id = ? AND session_id <> ?
		ORDER BY recorded_at DESC, session_id, position
		LIMIT ?`, surveyID, excludeSessionID, db.maxComparedResponses())
	if err != nil {
		observe("fetch_responses", "responses", start, err)
		return nil, fmt.Errorf("fetch responses: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var records []fraud.ResponseRecord
	for rows.Next() {
		var rec fraud.ResponseRecord
		if err := rows.Scan(&rec.SessionID, &rec.Text); err != nil {
			observe("fetch_responses", "responses", start, err)
			return nil, fmt.Errorf("scan response: %w", err)
		}
		records = append(records, rec)
	}
	err = rows.Err()
	observe("fetch_responses", "responses", start, err)
	if err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return records, nil
}

// ResolveCountryFromIP returns the stored country for ip, or "" when unknown.
func (db *DB) ResolveCountryFromIP(ctx context.Context, ip string) (string, error) {
	if err := db.checkOpen(); err != nil {
		return "", err
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "", nil
	}

	start := time.Now()
	var country string
	err := db.conn.QueryRowContext(ctx, `SELECT country FROM geolocations WHERE ip_address = ?`, ip).Scan(&country)
	if errors.Is(err, sql.ErrNoRows) {
		observe("resolve_country", "geolocations", start, nil)
		return "", nil
	}
	observe("resolve_country", "geolocations", start, err)
	if err != nil {
		return "", fmt.Errorf("resolve country: %w", err)
	}
	return country, nil
}

// FetchRespondentCountries returns the known countries of the respondent's
// sessions within window, one entry per session, leaving out excludeSessionID.
func (db *DB) FetchRespondentCountries(ctx context.Context, respondentID, excludeSessionID string, window time.Duration) ([]string, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	if respondentID == "" {
		return nil, nil
	}

	query := `SELECT g.country FROM sessions s
		JOIN geolocations g ON g.ip_address = s.ip_address
		WHERE s.respondent_id = ? AND g.country <> ''`
	args := []interface{}{respondentID}
	if excludeSessionID != "" {
		query += ` AND s.session_id <> ?`
		args = append(args, excludeSessionID)
	}
	if since, ok := db.since(window); ok {
		query += ` AND s.started_at >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY s.started_at`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		observe("fetch_countries", "sessions", start, err)
		return nil, fmt.Errorf("fetch respondent countries: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var countries []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			observe("fetch_countries", "sessions", start, err)
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, c)
	}
	err = rows.Err()
	observe("fetch_countries", "sessions", start, err)
	if err != nil {
		return nil, fmt.Errorf("iterate countries: %w", err)
	}
	return countries, nil
}
