// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/surveyguard/internal/fraud"
	"github.com/tomtom215/surveyguard/internal/models"
)

const maxWriteRetries = 3

// RecordSession stores the session and replaces its free-text answers.
// The fingerprint is the caller-supplied one or derived from device attributes.
func (db *DB) RecordSession(ctx context.Context, session *models.SessionContext) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	if session == nil || session.SessionID == "" || session.SurveyID == "" {
		return fmt.Errorf("session_id and survey_id are required")
	}

	startedAt := session.StartedAt.UTC()
	if session.StartedAt.IsZero() {
		startedAt = db.now()
	}
	fingerprint := fraud.SessionFingerprint(session)

	start := time.Now()
	err := db.withRetry(ctx, func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO sessions (
			session_id, survey_id, respondent_id, ip_address, fingerprint, started_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			survey_id = EXCLUDED.survey_id,
			respondent_id = EXCLUDED.respondent_id,
			ip_address = EXCLUDED.ip_address,
			fingerprint = EXCLUDED.fingerprint,
			started_at = EXCLUDED.started_at`,
			session.SessionID, session.SurveyID, nullString(session.RespondentID),
			nullString(strings.TrimSpace(session.IPAddress)), nullString(fingerprint), startedAt)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert session: %w", err)
		}

		if err := replaceResponses(ctx, tx, session.SurveyID, session.SessionID, session.Responses, db.now()); err != nil {
			_ = tx.Rollback()
			return err
		}

		return tx.Commit()
	})
	observe("record_session", "sessions", start, err)
	return err
}

// RecordResponses replaces the stored answers of one session.
func (db *DB) RecordResponses(ctx context.Context, surveyID, sessionID string, texts []string) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	if surveyID == "" || sessionID == "" {
		return fmt.Errorf("session_id and survey_id are required")
	}

	start := time.Now()
	err := db.withRetry(ctx, func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if err := replaceResponses(ctx, tx, surveyID, sessionID, texts, db.now()); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	observe("record_responses", "responses", start, err)
	return err
}

func replaceResponses(ctx context.Context, tx *sql.Tx, surveyID, sessionID string, texts []string, recordedAt time.Time) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}

	position := 0
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO responses (
			session_id, survey_id, position, text, recorded_at
		) VALUES (?, ?, ?, ?, ?)`, sessionID, surveyID, position, text, recordedAt); err != nil {
			return fmt.Errorf("insert response %d: %w", position, err)
		}
		position++
	}
	return nil
}

// SetGeolocation upserts the country resolved for an IP address.
func (db *DB) SetGeolocation(ctx context.Context, ip, country string) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return fmt.Errorf("ip address is required")
	}
	country = strings.ToUpper(strings.TrimSpace(country))

	mu := db.acquireIPLock(ip)
	defer mu.Unlock()

	start := time.Now()
	err := db.withRetry(ctx, func() error {
		_, err := db.conn.ExecContext(ctx, `INSERT INTO geolocations (ip_address, country, last_updated)
			VALUES (?, ?, ?)
			ON CONFLICT (ip_address) DO UPDATE SET
				country = EXCLUDED.country,
				last_updated = EXCLUDED.last_updated`,
			ip, country, db.now())
		return err
	})
	observe("set_geolocation", "geolocations", start, err)
	return err
}

func (db *DB) acquireIPLock(ip string) *sync.Mutex {
	v, _ := db.ipLocks.LoadOrStore(ip, &sync.Mutex{})
	mu, ok := v.(*sync.Mutex)
	if !ok {
		mu = &sync.Mutex{}
		db.ipLocks.Store(ip, mu)
	}
	mu.Lock()
	return mu
}

// withRetry retries fn on DuckDB transaction conflicts with 1ms/2ms/4ms backoff.
func (db *DB) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("operation timed out or canceled: %w", ctx.Err())
		}
		if !isTransactionConflict(err) {
			return err
		}
		if attempt < maxWriteRetries-1 {
			backoff := time.Millisecond * time.Duration(1<<uint(attempt))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
