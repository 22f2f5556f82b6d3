// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestMaskIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.77", "203.0.113.0/24"},
		{" 10.1.2.3 ", "10.1.2.0/24"},
		{"2001:db8:abcd:12::1", "2001:db8:abcd::/48"},
		{"not-an-ip", "[REDACTED]"},
		{"", "[REDACTED]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := MaskIP(tt.in); got != tt.want {
				t.Errorf("MaskIP(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"token empty", SanitizeToken(""), ""},
		{"token short", SanitizeToken("abc"), "[REDACTED]"},
		{"token long", SanitizeToken("9f86d081884c7d65"), "9f86..."},
		{"id short", SanitizeID("resp-42"), "resp-42"},
		{"id long", SanitizeID("respondent-000123456"), "responde..."},
		{"email", SanitizeEmail("jane@example.com"), "j***@example.com"},
		{"email invalid", SanitizeEmail("@example.com"), "[REDACTED]"},
		{"value ip key", SanitizeValue("IP_Address", "192.168.7.9"), "192.168.7.0/24"},
		{"value email content", SanitizeValue("note", "a@b.io"), "a***@b.io"},
		{"value plain", SanitizeValue("signal", "velocity"), "velocity"},
		{"value long", SanitizeValue("text", strings.Repeat("x", 300)), strings.Repeat("x", 256) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestLogVerdict(t *testing.T) {
	capture(t)

	var buf bytes.Buffer
	vl := NewVerdictLoggerWithLogger(NewTestLogger(&buf))

	vl.LogVerdict(&VerdictEvent{
		Event:        "session_scored",
		SessionID:    "sess-1",
		SurveyID:     "survey-1",
		RespondentID: "respondent-000123456",
		IPAddress:    "198.51.100.23",
		Fingerprint:  "9f86d081884c7d65",
		Score:        0.82,
		RiskLevel:    "CRITICAL",
		Flagged:      true,
		Reasons:      []string{"ip_reuse", "velocity"},
		Details:      map[string]string{"country": "US"},
	})

	entry := decodeLine(t, &buf)
	checks := map[string]interface{}{
		"level":         "warn",
		"event":         "session_scored",
		"session_id":    "sess-1",
		"survey_id":     "survey-1",
		"respondent_id": "responde...",
		"ip":            "198.51.100.0/24",
		"fingerprint":   "9f86...",
		"risk_level":    "CRITICAL",
		"flagged":       true,
		"score":         0.82,
		"country":       "US",
		"message":       "Session verdict",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s = %v, want %v", k, entry[k], want)
		}
	}
	if strings.Contains(buf.String(), "198.51.100.23") {
		t.Error("raw IP leaked into log")
	}
}

func TestLogVerdictNotFlagged(t *testing.T) {
	capture(t)

	var buf bytes.Buffer
	vl := NewVerdictLoggerWithLogger(NewTestLogger(&buf))
	vl.LogVerdict(&VerdictEvent{Event: "session_scored", SessionID: "s", Score: 0.1})
	vl.LogVerdict(nil)

	entry := decodeLine(t, &buf)
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if _, ok := entry["ip"]; ok {
		t.Error("empty IP should be omitted")
	}
}
