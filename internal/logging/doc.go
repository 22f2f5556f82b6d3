// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

// Package logging provides zerolog-based structured logging for SurveyGuard.
//
// A single global logger is configured once from main and used through
// level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
//
// Request-scoped code logs through the context so that request_id and
// session_id travel with every entry:
//
//	ctx = logging.ContextWithSessionID(ctx, sessionID)
//	logging.Ctx(ctx).Warn().Err(err).Msg("Fingerprint lookup failed")
//
// # Verdicts
//
// VerdictLogger writes one audit entry per scored session. IP addresses are
// truncated to their /24 (IPv4) or /48 (IPv6) network and fingerprints and
// respondent IDs are shortened before they are written.
//
// # slog
//
// SlogHandler adapts zerolog to log/slog for libraries that only accept an
// *slog.Logger, such as the sutureslog supervisor event hook.
//
// Always terminate event chains with Msg or Send; an unterminated chain is
// never written.
package logging
