// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package models defines the data structures shared by the SurveyGuard scoring engine.

Inputs:

  - InteractionEvent: one browser telemetry event (keystroke, mouse, scroll, focus, click)
  - SessionContext: identity and survey facts for fraud analysis
  - GridResponse / QuestionTiming: per-question response-quality inputs

Outputs (created once per analysis, never mutated afterwards):

  - DetectionResult: behavioral bot-likelihood verdict
  - FraudIndicator: IP / fingerprint / duplicate / geolocation / velocity risk
  - GridResponseAnalysis: straight-lining, geometric pattern and satisficing flags
  - TimingAnalysis: speeder / flatliner classification per question
  - CompositeScore: behavioral confidence blended with external text quality
  - SessionReport: everything above for one session

Every bounded score is in [0,1]. Text quality scores are the single exception and
are in [0,100].
*/
package models
