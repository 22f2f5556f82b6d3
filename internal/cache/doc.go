// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package cache provides a thread-safe, generic LRU cache with TTL expiry.

It backs read-through caching in front of the history store, where the same
lookups (IP address to country, for example) repeat across many sessions
from the same survey panel.

# Behavior

  - O(1) Get, Add and Remove using a hashmap and a doubly-linked list
  - Least recently used entries are evicted once capacity is reached
  - Entries expire lazily on Get; CleanupExpired sweeps them eagerly
  - Hit, miss and eviction counters are exposed through Stats

# Usage

	countries := cache.NewLRU[string, string](10000, time.Hour)
	countries.Add("203.0.113.7", "DE")

	if country, ok := countries.Get("203.0.113.7"); ok {
	    // use country
	}

A background janitor (see internal/supervisor/services) calls CleanupExpired
periodically so that expired entries do not hold memory until they are read.

# Thread Safety

All methods are safe for concurrent use.
*/
package cache
