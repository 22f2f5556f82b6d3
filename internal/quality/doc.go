// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

// Package quality flags low-effort survey answering.
//
// GridDetector classifies grid/matrix answers: straight-lining (one value
// for at least 80% of rows), geometric patterns (diagonal, reverse diagonal,
// zigzag, straight line), answer variance and an overall satisficing score.
//
// TimingDetector flags speeders and flatliners per question with fixed
// thresholds, adaptive thresholds derived from the batch once it has three
// samples, and z-score outliers.
//
// Both detectors are stateless and safe for concurrent use.
package quality
