// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

// Package history composes the stores behind fraud.HistoryStore.
//
// The layers, innermost first:
//
//   - database.DB: durable DuckDB history, authoritative for every query
//   - RedisCounter: sliding-window session counts in Redis sorted sets
//   - SplitStore: routes trailing-window counts to Redis, everything else to DuckDB
//   - CachedStore: TTL LRU in front of IP-to-country resolution
//   - GuardedStore: circuit breaker and token-bucket rate limit on every lookup
//
// A typical wiring:
//
//	split := history.NewSplitStore(db, counter)
//	cached := history.NewCachedStore(split, cfg.Cache.CountryCapacity, cfg.Cache.CountryTTL)
//	store := history.NewGuardedStore(cached, cfg.Store)
//	engine := fraud.NewEngine(store, fraud.DefaultAggregatorConfig())
//
// Every layer also forwards RecordSession and SetGeolocation when the layer
// beneath supports them, so the scoring engine can record through the same
// value it reads from.
package history
