// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package logging

import (
	"net"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// VerdictEvent is the audit record written once per scored session.
// Respondent identifiers are masked before they reach the log stream.
type VerdictEvent struct {
	Event        string
	SessionID    string
	SurveyID     string
	RespondentID string
	IPAddress    string
	Fingerprint  string
	Score        float64
	RiskLevel    string
	Flagged      bool
	Reasons      []string
	Details      map[string]string
}

// VerdictLogger writes scoring verdicts.
type VerdictLogger struct {
	logger zerolog.Logger
}

// NewVerdictLogger returns a verdict logger on the global logger.
func NewVerdictLogger() *VerdictLogger {
	return &VerdictLogger{logger: WithComponent("scoring")}
}

// NewVerdictLoggerWithLogger returns a verdict logger writing to logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewVerdictLoggerWithLogger(logger zerolog.Logger) *VerdictLogger {
	return &VerdictLogger{logger: logger}
}

// LogVerdict writes ev at warn level when flagged, info otherwise.
func (v *VerdictLogger) LogVerdict(ev *VerdictEvent) {
	if ev == nil {
		return
	}

	event := v.logger.Info()
	if ev.Flagged {
		event = v.logger.Warn()
	}

	event = event.
		Str("event", ev.Event).
		Str("session_id", truncateString(ev.SessionID, 64)).
		Float64("score", ev.Score).
		Bool("flagged", ev.Flagged)
	if ev.SurveyID != "" {
		event = event.Str("survey_id", truncateString(ev.SurveyID, 64))
	}
	if ev.RiskLevel != "" {
		event = event.Str("risk_level", ev.RiskLevel)
	}
	if ev.RespondentID != "" {
		event = event.Str("respondent_id", SanitizeID(ev.RespondentID))
	}
	if ev.IPAddress != "" {
		event = event.Str("ip", MaskIP(ev.IPAddress))
	}
	if ev.Fingerprint != "" {
		event = event.Str("fingerprint", SanitizeToken(ev.Fingerprint))
	}
	if len(ev.Reasons) > 0 {
		event = event.Strs("reasons", ev.Reasons)
	}

	keys := make([]string, 0, len(ev.Details))
	for k := range ev.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		event = event.Str(k, SanitizeValue(k, ev.Details[k]))
	}

	event.Msg("Session verdict")
}

// MaskIP zeroes the host part of an address: /24 for IPv4, /48 for IPv6.
// Unparseable input is redacted.
func MaskIP(ip string) string {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "[REDACTED]"
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String() + "/24"
	}
	return parsed.Mask(net.CIDRMask(48, 128)).String() + "/48"
}

// SanitizeToken keeps the first four characters of an opaque token.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "[REDACTED]"
	}
	return token[:4] + "..."
}

// SanitizeID keeps short identifiers and truncates long ones.
func SanitizeID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:8] + "..."
}

// SanitizeEmail keeps the first character of the local part and the domain.
func SanitizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "[REDACTED]"
	}
	return email[:1] + "***" + email[at:]
}

// sensitiveKeys lists detail keys whose values are masked.
var sensitiveKeys = map[string]func(string) string{
	"ip":            MaskIP,
	"ip_address":    MaskIP,
	"respondent_id": SanitizeID,
	"email":         SanitizeEmail,
	"fingerprint":   SanitizeToken,
}

// SanitizeValue masks value according to its key and truncates long values.
func SanitizeValue(key, value string) string {
	if mask, ok := sensitiveKeys[strings.ToLower(key)]; ok {
		return mask(value)
	}
	if strings.Contains(value, "@") && strings.Contains(value, ".") {
		return SanitizeEmail(value)
	}
	return truncateString(value, 256)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
