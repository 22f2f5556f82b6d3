// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package database

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/surveyguard/internal/config"
	"github.com/tomtom215/surveyguard/internal/models"
)

// testDBSemaphore serializes DuckDB use across tests; concurrent CGO
// connections from parallel tests can hang under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T, maxCompared int) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := New(&config.DatabaseConfig{
		Path:                 ":memory:",
		MaxMemory:            "256MB",
		Threads:              1,
		MaxComparedResponses: maxCompared,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	db.now = func() time.Time { return testNow }
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func record(t *testing.T, db *DB, s models.SessionContext) {
	t.Helper()
	if err := db.RecordSession(context.Background(), &s); err != nil {
		t.Fatalf("RecordSession(%s) error = %v", s.SessionID, err)
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestCountSessionsWindows(t *testing.T) {
	db := setupTestDB(t, 0)
	ctx := context.Background()

	record(t, db, models.SessionContext{SessionID: "s1", SurveyID: "q", RespondentID: "r1", IPAddress: "203.0.113.5", Fingerprint: "fp-a", StartedAt: testNow.Add(-2 * time.Hour)})
	record(t, db, models.SessionContext{SessionID: "s2", SurveyID: "q", RespondentID: "r1", IPAddress: "203.0.113.5", Fingerprint: "fp-a", StartedAt: testNow.Add(-30 * time.Minute)})
	record(t, db, models.SessionContext{SessionID: "s3", SurveyID: "q", RespondentID: "r2", IPAddress: "203.0.113.5", Fingerprint: "fp-b", StartedAt: testNow.Add(-10 * time.Minute)})
	record(t, db, models.SessionContext{SessionID: "s4", SurveyID: "q", RespondentID: "r2", IPAddress: "198.51.100.9", Fingerprint: "fp-b", StartedAt: testNow.Add(-48 * time.Hour)})

	tests := []struct {
		name  string
		count func() (int, error)
		want  int
	}{
		{"ip all time", func() (int, error) { return db.CountSessionsByIP(ctx, "203.0.113.5", "", 0) }, 3},
		{"ip last hour", func() (int, error) { return db.CountSessionsByIP(ctx, "203.0.113.5", "", time.Hour) }, 2},
		{"ip last 24h", func() (int, error) { return db.CountSessionsByIP(ctx, "198.51.100.9", "", 24*time.Hour) }, 0},
		{"ip unknown", func() (int, error) { return db.CountSessionsByIP(ctx, "192.0.2.1", "", 0) }, 0},
		{"ip empty", func() (int, error) { return db.CountSessionsByIP(ctx, "", "", 0) }, 0},
		{"fingerprint all time", func() (int, error) { return db.CountSessionsByFingerprint(ctx, "fp-b", "", 0) }, 2},
		{"fingerprint last hour", func() (int, error) { return db.CountSessionsByFingerprint(ctx, "fp-a", "", time.Hour) }, 1},
		{"respondent all time", func() (int, error) { return db.CountSessionsByRespondent(ctx, "r1", "", 0) }, 2},
		{"respondent last hour", func() (int, error) { return db.CountSessionsByRespondent(ctx, "r2", "", time.Hour) }, 1},
		{"ip excluding scored session", func() (int, error) { return db.CountSessionsByIP(ctx, "203.0.113.5", "s3", 0) }, 2},
		{"ip excluding session outside window", func() (int, error) { return db.CountSessionsByIP(ctx, "203.0.113.5", "s1", time.Hour) }, 2},
		{"fingerprint excluding scored session", func() (int, error) { return db.CountSessionsByFingerprint(ctx, "fp-a", "s2", time.Hour) }, 0},
		{"respondent excluding scored session", func() (int, error) { return db.CountSessionsByRespondent(ctx, "r1", "s2", 0) }, 1},
		{"respondent excluding unknown session", func() (int, error) { return db.CountSessionsByRespondent(ctx, "r1", "nope", 0) }, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.count()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got != tt.want {
				t.Errorf("count = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRecordSessionUpsert(t *testing.T) {
	db := setupTestDB(t, 0)
	ctx := context.Background()

	record(t, db, models.SessionContext{SessionID: "s1", SurveyID: "q", IPAddress: "203.0.113.5", Responses: []string{"first answer", "second answer"}})
	record(t, db, models.SessionContext{SessionID: "s1", SurveyID: "q", IPAddress: "203.0.113.6", Responses: []string{"replaced answer", "  "}})

	if n, _ := db.CountSessionsByIP(ctx, "203.0.113.5", "", 0); n != 0 {
		t.Errorf("old IP count = %d, want 0", n)
	}
	if n, _ := db.CountSessionsByIP(ctx, "203.0.113.6", "", 0); n != 1 {
		t.Errorf("new IP count = %d, want 1", n)
	}

	recs, err := db.FetchOtherResponsesInSurvey(ctx, "q", "other")
	if err != nil {
		t.Fatalf("FetchOtherResponsesInSurvey() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Text != "replaced answer" {
		t.Errorf("responses = %+v, want the single replaced answer", recs)
	}
}

func TestRecordSessionDerivesFingerprint(t *testing.T) {
	db := setupTestDB(t, 0)
	ctx := context.Background()

	device := models.SessionContext{SurveyID: "q", UserAgent: "Mozilla/5.0", ScreenSize: "1920x1080", Timezone: "UTC"}
	a, b := device, device
	a.SessionID, b.SessionID = "a", "b"
	b.UserAgent = "  MOZILLA/5.0 "
	record(t, db, a)
	record(t, db, b)

	var fp string
	if err := db.Conn().QueryRowContext(ctx, `SELECT fingerprint FROM sessions WHERE session_id = 'a'`).Scan(&fp); err != nil {
		t.Fatalf("query fingerprint: %v", err)
	}
	if len(fp) != 64 {
		t.Fatalf("fingerprint %q is not a hex BLAKE2b-256 digest", fp)
	}
	if n, _ := db.CountSessionsByFingerprint(ctx, fp, "", 0); n != 2 {
		t.Errorf("fingerprint count = %d, want 2", n)
	}
}

func TestRecordSessionValidation(t *testing.T) {
	db := setupTestDB(t, 0)
	ctx := context.Background()

	if err := db.RecordSession(ctx, nil); err == nil {
		t.Error("expected error for nil session")
	}
	if err := db.RecordSession(ctx, &models.SessionContext{SessionID: "s"}); err == nil {
		t.Error("expected error for missing survey_id")
	}
	if err := db.RecordResponses(ctx, "", "s", []string{"x"}); err == nil {
		t.Error("expected error for missing survey_id")
	}
}

func TestFetchOtherResponsesInSurvey(t *testing.T) {
	db := setupTestDB(t, 2)
	ctx := context.Background()

	record(t, db, models.SessionContext{SessionID: "me", SurveyID: "q", Responses: []string{"my own answer"}})
	record(t, db, models.SessionContext{SessionID: "other", SurveyID: "q", Responses: []string{"another answer"}})
	record(t, db, models.SessionContext{SessionID: "elsewhere", SurveyID: "z", Responses: []string{"different survey"}})

	recs, err := db.FetchOtherResponsesInSurvey(ctx, "q", "me")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(recs) != 1 || recs[0].SessionID != "other" {
		t.Fatalf("records = %+v, want only session other", recs)
	}

	if err := db.RecordResponses(ctx, "q", "third", []string{"a", "b", "c"}); err != nil {
		t.Fatalf("RecordResponses() error = %v", err)
	}
	recs, err = db.FetchOtherResponsesInSurvey(ctx, "q", "me")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("len(records) = %d, want limit 2", len(recs))
	}

	if recs, _ := db.FetchOtherResponsesInSurvey(ctx, "", "me"); recs != nil {
		t.Errorf("expected nil for empty survey, got %+v", recs)
	}
}

func TestGeolocation(t *testing.T) {
	db := setupTestDB(t, 0)
	ctx := context.Background()

	country, err := db.ResolveCountryFromIP(ctx, "203.0.113.5")
	if err != nil || country != "" {
		t.Fatalf("unknown IP = %q, %v; want empty, nil", country, err)
	}

	if err := db.SetGeolocation(ctx, "203.0.113.5", " us "); err != nil {
		t.Fatalf("SetGeolocation() error = %v", err)
	}
	if country, _ := db.ResolveCountryFromIP(ctx, "203.0.113.5"); country != "US" {
		t.Errorf("country = %q, want US", country)
	}

	if err := db.SetGeolocation(ctx, "203.0.113.5", "DE"); err != nil {
		t.Fatalf("SetGeolocation() update error = %v", err)
	}
	if country, _ := db.ResolveCountryFromIP(ctx, "203.0.113.5"); country != "DE" {
		t.Errorf("country after update = %q, want DE", country)
	}

	if err := db.SetGeolocation(ctx, " ", "US"); err == nil {
		t.Error("expected error for empty IP")
	}
}

func TestFetchRespondentCountries(t *testing.T) {
	db := setupTestDB(t, 0)
	ctx := context.Background()

	for ip, c := range map[string]string{"203.0.113.5": "US", "198.51.100.9": "DE", "192.0.2.1": ""} {
		if err := db.SetGeolocation(ctx, ip, c); err != nil {
			t.Fatalf("SetGeolocation(%s) error = %v", ip, err)
		}
	}
	record(t, db, models.SessionContext{SessionID: "s1", SurveyID: "q", RespondentID: "r", IPAddress: "198.51.100.9", StartedAt: testNow.Add(-3 * time.Hour)})
	record(t, db, models.SessionContext{SessionID: "s2", SurveyID: "q", RespondentID: "r", IPAddress: "203.0.113.5", StartedAt: testNow.Add(-20 * time.Minute)})
	record(t, db, models.SessionContext{SessionID: "s3", SurveyID: "q", RespondentID: "r", IPAddress: "192.0.2.1", StartedAt: testNow.Add(-10 * time.Minute)})
	record(t, db, models.SessionContext{SessionID: "s4", SurveyID: "q", RespondentID: "r", IPAddress: "10.0.0.1", StartedAt: testNow.Add(-5 * time.Minute)})

	got, err := db.FetchRespondentCountries(ctx, "r", "", time.Hour)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"US"}) {
		t.Errorf("last hour = %v, want [US]", got)
	}

	got, err = db.FetchRespondentCountries(ctx, "r", "", 0)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"DE", "US"}) {
		t.Errorf("all time = %v, want [DE US]", got)
	}

	got, err = db.FetchRespondentCountries(ctx, "r", "s2", 0)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"DE"}) {
		t.Errorf("all time excluding s2 = %v, want [DE]", got)
	}
}

func TestClosedDatabase(t *testing.T) {
	db := setupTestDB(t, 0)
	ctx := context.Background()

	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, err := db.CountSessionsByIP(ctx, "203.0.113.5", "", 0); !errors.Is(err, ErrDatabaseClosed) {
		t.Errorf("CountSessionsByIP() error = %v, want ErrDatabaseClosed", err)
	}
	if err := db.RecordSession(ctx, &models.SessionContext{SessionID: "s", SurveyID: "q"}); !errors.Is(err, ErrDatabaseClosed) {
		t.Errorf("RecordSession() error = %v, want ErrDatabaseClosed", err)
	}
	if err := db.Ping(ctx); !errors.Is(err, ErrDatabaseClosed) {
		t.Errorf("Ping() error = %v, want ErrDatabaseClosed", err)
	}
}

func TestIsTransactionConflict(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("TransactionContext Error: Transaction conflict: cannot update"), true},
		{errors.New("Constraint Error: Conflict on update"), true},
		{errors.New("Catalog Error: table missing"), false},
	}
	for _, tt := range tests {
		if got := isTransactionConflict(tt.err); got != tt.want {
			t.Errorf("isTransactionConflict(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
