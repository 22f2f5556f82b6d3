// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errStoreDown = errors.New("store unavailable")

// mockHistoryStore implements HistoryStore for testing
type mockHistoryStore struct {
	ipTotal     int
	ipRecent    int
	fingerprint int
	respondent  int
	responses   []ResponseRecord
	country     string
	countries   []string

	// delay is applied to every call; calls honor ctx like a real driver
	delay time.Duration

	// failOps makes the named operations return errStoreDown
	failOps map[string]bool

	// ignoreContext makes delayed calls sleep through cancellation
	ignoreContext bool

	mu       sync.Mutex
	calls    map[string]int
	excluded map[string]string
}

func (m *mockHistoryStore) record(ctx context.Context, op string) error {
	return m.recordExcluding(ctx, op, "")
}

func (m *mockHistoryStore) recordExcluding(ctx context.Context, op, exclude string) error {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
		m.excluded = make(map[string]string)
	}
	m.calls[op]++
	m.excluded[op] = exclude
	fail := m.failOps[op]
	m.mu.Unlock()

	if m.delay > 0 {
		if m.ignoreContext {
			time.Sleep(m.delay)
		} else {
			select {
			case <-time.After(m.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if fail {
		return errStoreDown
	}
	return nil
}

func (m *mockHistoryStore) callCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockHistoryStore) excludedFor(op string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.excluded[op]
}

func (m *mockHistoryStore) CountSessionsByIP(ctx context.Context, ip, exclude string, window time.Duration) (int, error) {
	if err := m.recordExcluding(ctx, "ip", exclude); err != nil {
		return 0, err
	}
	switch {
	case window == 0:
		return m.ipTotal, nil
	case window >= 24*time.Hour:
		return m.ipRecent, nil
	default:
		// trailing-hour velocity query
		return m.ipRecent, nil
	}
}

func (m *mockHistoryStore) CountSessionsByFingerprint(ctx context.Context, fp, exclude string, window time.Duration) (int, error) {
	if err := m.recordExcluding(ctx, "fingerprint", exclude); err != nil {
		return 0, err
	}
	return m.fingerprint, nil
}

func (m *mockHistoryStore) CountSessionsByRespondent(ctx context.Context, id, exclude string, window time.Duration) (int, error) {
	if err := m.recordExcluding(ctx, "respondent", exclude); err != nil {
		return 0, err
	}
	return m.respondent, nil
}

func (m *mockHistoryStore) FetchOtherResponsesInSurvey(ctx context.Context, surveyID, exclude string) ([]ResponseRecord, error) {
	if err := m.record(ctx, "responses"); err != nil {
		return nil, err
	}
	return m.responses, nil
}

func (m *mockHistoryStore) ResolveCountryFromIP(ctx context.Context, ip string) (string, error) {
	if err := m.record(ctx, "country"); err != nil {
		return "", err
	}
	return m.country, nil
}

func (m *mockHistoryStore) FetchRespondentCountries(ctx context.Context, id, exclude string, window time.Duration) ([]string, error) {
	if err := m.recordExcluding(ctx, "countries", exclude); err != nil {
		return nil, err
	}
	return m.countries, nil
}
