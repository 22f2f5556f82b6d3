// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package scoring runs the full detection pipeline for one survey session.

ScoreSession fans the behavioral engine and the fraud engine out with an
errgroup, joins, then runs the grid and timing detectors and blends the
behavioral confidence with text quality into the composite score. The result
is a models.SessionReport bundling every verdict.

Partial input is normal: a request without events has no behavioral or
composite verdict, a request without grid answers has no grid verdict, and
so on. Missing parts are reported in SessionReport.Errors; only a missing
session ID or a canceled context fail the call.

After scoring, the engine optionally records the session through a
history.Recorder (so later sessions count it) and publishes the report:

	engine, err := scoring.NewFromConfig(store, cfg.Scoring,
	    scoring.WithRecorder(store),
	    scoring.WithPublisher(publisher),
	)
	report, err := engine.ScoreSession(ctx, req)

Sessions share no mutable state; one Engine serves concurrent requests.
*/
package scoring
