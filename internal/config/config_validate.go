// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package config

import (
	"fmt"
	"math"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateRedis,
		c.validateCache,
		c.validateStore,
		c.validateScoring,
		c.validateEvents,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// validateDatabase validates the DuckDB configuration
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	if c.Database.MaxComparedResponses < 1 {
		return fmt.Errorf("DUCKDB_MAX_COMPARED_RESPONSES must be at least 1")
	}
	return nil
}

// validateRedis validates Redis configuration (only if enabled)
func (c *Config) validateRedis() error {
	if !c.Redis.Enabled {
		return nil
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED=true")
	}
	if c.Redis.Retention < time.Minute {
		return fmt.Errorf("REDIS_RETENTION must be at least 1m")
	}
	return nil
}

// validateCache validates cache configuration
func (c *Config) validateCache() error {
	if c.Cache.CountryCapacity < 1 {
		return fmt.Errorf("CACHE_COUNTRY_CAPACITY must be at least 1")
	}
	if c.Cache.CountryTTL <= 0 || c.Cache.JanitorInterval <= 0 {
		return fmt.Errorf("CACHE_COUNTRY_TTL and CACHE_JANITOR_INTERVAL must be positive")
	}
	return nil
}

// validateStore validates store resilience configuration
func (c *Config) validateStore() error {
	if c.Store.BreakerFailures == 0 {
		return fmt.Errorf("STORE_BREAKER_FAILURES must be at least 1")
	}
	if c.Store.BreakerTimeout <= 0 {
		return fmt.Errorf("STORE_BREAKER_TIMEOUT must be positive")
	}
	if c.Store.RateLimit < 0 {
		return fmt.Errorf("STORE_RATE_LIMIT must not be negative")
	}
	if c.Store.RateLimit > 0 && c.Store.RateBurst < 1 {
		return fmt.Errorf("STORE_RATE_BURST must be at least 1 when rate limiting is enabled")
	}
	return nil
}

// validateScoring validates scoring thresholds
func (c *Config) validateScoring() error {
	s := c.Scoring
	unit := map[string]float64{
		"SCORING_BOT_THRESHOLD":               s.BotThreshold,
		"SCORING_DUPLICATE_THRESHOLD":         s.DuplicateThreshold,
		"SCORING_COMPOSITE_BEHAVIORAL_WEIGHT": s.CompositeBehavioralWeight,
		"SCORING_COMPOSITE_BOT_THRESHOLD":     s.CompositeBotThreshold,
		"SCORING_STRAIGHT_LINE_THRESHOLD":     s.StraightLineThreshold,
	}
	for name, v := range unit {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if s.StraightLineThreshold == 0 {
		return fmt.Errorf("SCORING_STRAIGHT_LINE_THRESHOLD must be greater than 0")
	}
	if s.LookupTimeout <= 0 {
		return fmt.Errorf("SCORING_LOOKUP_TIMEOUT must be positive")
	}
	if s.SpeederMs <= 0 || s.FlatlinerMs <= s.SpeederMs {
		return fmt.Errorf("SCORING_FLATLINER_MS must be greater than SCORING_SPEEDER_MS and both positive")
	}
	return nil
}

// validTransports defines the allowed event transports
var validTransports = map[string]bool{
	"memory":   true,
	"nats":     true,
	"embedded": true,
}

// validateEvents validates result publication configuration (only if enabled)
func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if !validTransports[c.Events.Transport] {
		return fmt.Errorf("EVENTS_TRANSPORT must be one of: memory, nats, embedded")
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC is required when events are enabled")
	}
	if c.Events.Transport == "nats" && c.Events.NATSURL == "" {
		return fmt.Errorf("NATS_URL is required when EVENTS_TRANSPORT=nats")
	}
	if c.Events.Transport == "embedded" && c.Events.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when EVENTS_TRANSPORT=embedded")
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

// validateSecurity validates security configuration
func (c *Config) validateSecurity() error {
	if c.Security.MaxBodyBytes < 1 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production. " +
			"Set specific origins: CORS_ORIGINS=https://survey.example.com")
	}
	return c.validateRateLimits()
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
