// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package history

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/surveyguard/internal/fraud"
	"github.com/tomtom215/surveyguard/internal/models"
)

// fakeStore is an in-memory fraud.HistoryStore that counts calls.
type fakeStore struct {
	mu        sync.Mutex
	count     int
	countries map[string]string
	responses []fraud.ResponseRecord
	history   []string
	err       error
	calls     map[string]int
	recorded  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{countries: map[string]string{}, calls: map[string]int{}}
}

func (f *fakeStore) hit(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.err
}

func (f *fakeStore) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) CountSessionsByIP(_ context.Context, _, _ string, _ time.Duration) (int, error) {
	return f.count, f.hit("ip")
}

func (f *fakeStore) CountSessionsByFingerprint(_ context.Context, _, _ string, _ time.Duration) (int, error) {
	return f.count, f.hit("fp")
}

func (f *fakeStore) CountSessionsByRespondent(_ context.Context, _, _ string, _ time.Duration) (int, error) {
	return f.count, f.hit("resp")
}

func (f *fakeStore) FetchOtherResponsesInSurvey(_ context.Context, _, _ string) ([]fraud.ResponseRecord, error) {
	return f.responses, f.hit("responses")
}

func (f *fakeStore) ResolveCountryFromIP(_ context.Context, ip string) (string, error) {
	if err := f.hit("country"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countries[ip], nil
}

func (f *fakeStore) FetchRespondentCountries(_ context.Context, _, _ string, _ time.Duration) ([]string, error) {
	return f.history, f.hit("history")
}

func (f *fakeStore) RecordSession(_ context.Context, s *models.SessionContext) error {
	if err := f.hit("record"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, s.SessionID)
	return nil
}

func (f *fakeStore) SetGeolocation(_ context.Context, ip, country string) error {
	if err := f.hit("set_geo"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countries[ip] = country
	return nil
}

// readOnlyStore hides the fake's write methods.
type readOnlyStore struct{ fraud.HistoryStore }
