// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Command loadgen sends synthetic survey sessions to a running SurveyGuard
server and prints how many of them were flagged.

Human sessions have jittered keystroke timing, curved pointer paths and
varied answers. Bot sessions type at a fixed cadence, move in straight lines,
share a small pool of IP addresses and fingerprints, straight-line grid
questions and submit near-identical free text. The generator is seeded, so
two runs with the same -seed produce the same traffic.

Usage:

	loadgen -target http://localhost:8080 -sessions 500 -bot-ratio 0.3 -concurrency 16
*/
package main
