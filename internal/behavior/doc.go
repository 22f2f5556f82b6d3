// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package behavior scores how bot-like a survey session's interaction telemetry is.

# Overview

A raw, time-ordered event batch is grouped by type (Normalize) and handed to five
independent analyzers. Each analyzer maps the batch to a sub-score in [0,1]:

  - keystroke: inter-key timing regularity, speed and quantization
  - mouse: linear paths, excessive speed, perfect precision, uniform distances
  - timing: whole-session duration, event rate and interval regularity
  - device: screen/viewport changes and known headless resolutions
  - network: placeholder returning the neutral score

An analyzer that sees fewer events than its configured minimum returns the neutral
score 0.5 instead of an error, so one thin signal never dominates the verdict.

The Aggregator combines the sub-scores with a weighted mean into a confidence score,
a bot classification (confidence > bot threshold) and a risk tier.

# Engine

Engine runs every enabled analyzer concurrently and joins before aggregating:

	engine := behavior.NewEngine(behavior.DefaultAggregatorConfig())
	engine.RegisterDefaults()
	result, err := engine.Analyze(ctx, sessionID, events)
	if errors.Is(err, behavior.ErrNoBehaviorData) {
	    // empty batch
	}

# Configuration

Every analyzer exposes Configure(json.RawMessage) with validation, mirroring the
thresholds listed in its *Config struct. Defaults come from Default*Config().

# Thread Safety

Analyzers guard their configuration with a RWMutex and never retain per-session
state, so one Engine can score many sessions in parallel.
*/
package behavior
