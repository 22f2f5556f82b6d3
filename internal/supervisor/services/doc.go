// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package services wraps SurveyGuard components as suture.Service values.

  - HTTPServerService runs the API server and shuts it down gracefully.
  - CacheJanitorService sweeps expired entries from the cached history store.
  - PublisherService owns the result publisher lifetime and reports health
    transitions.

Every wrapper blocks in Serve until its context is canceled and returns nil
on a clean stop, so the supervisor only restarts services that actually fail.
*/
package services
