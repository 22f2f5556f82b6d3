// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package history

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/surveyguard/internal/config"
	"github.com/tomtom215/surveyguard/internal/fraud"
	"github.com/tomtom215/surveyguard/internal/metrics"
	"github.com/tomtom215/surveyguard/internal/models"
)

// Counter dimensions.
const (
	DimensionIP          = "ip"
	DimensionFingerprint = "fp"
	DimensionRespondent  = "resp"
)

// DefaultRetention is how long session timestamps stay in Redis.
const DefaultRetention = 24 * time.Hour

// RedisCounter keeps one sorted set per identifier, scored by session start
// time in milliseconds with the session ID as member. Re-recording a session
// only moves its score.
type RedisCounter struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
	closed    atomic.Bool
}

// NewRedisCounter connects to Redis and verifies the connection.
func NewRedisCounter(ctx context.Context, cfg *config.RedisConfig) (*RedisCounter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	return NewRedisCounterWithClient(client, cfg.KeyPrefix, cfg.Retention), nil
}

// NewRedisCounterWithClient wraps an existing client.
func NewRedisCounterWithClient(client redis.UniversalClient, prefix string, retention time.Duration) *RedisCounter {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisCounter{
		client:    client,
		prefix:    prefix,
		retention: retention,
		now:       time.Now,
	}
}

// Retention returns how far back counts are available.
func (c *RedisCounter) Retention() time.Duration {
	return c.retention
}

// Serves reports whether a count over window can be answered from Redis.
// All-time counts (window 0) and windows beyond retention cannot.
func (c *RedisCounter) Serves(window time.Duration) bool {
	return window > 0 && window <= c.retention
}

func (c *RedisCounter) key(dimension, value string) string {
	return c.prefix + "sessions:" + dimension + ":" + value
}

// Record adds the session to the IP, fingerprint and respondent sets, trims
// entries older than the retention and refreshes key expiry.
func (c *RedisCounter) Record(ctx context.Context, session *models.SessionContext) error {
	if c.closed.Load() {
		return ErrStoreClosed
	}
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}

	startedAt := session.StartedAt
	if startedAt.IsZero() {
		startedAt = c.now()
	}
	score := float64(startedAt.UnixMilli())
	cutoff := strconv.FormatInt(c.now().Add(-c.retention).UnixMilli(), 10)

	dims := map[string]string{
		DimensionIP:          strings.TrimSpace(session.IPAddress),
		DimensionFingerprint: fraud.SessionFingerprint(session),
		DimensionRespondent:  session.RespondentID,
	}

	start := time.Now()
	pipe := c.client.TxPipeline()
	for dim, value := range dims {
		if value == "" {
			continue
		}
		key := c.key(dim, value)
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: session.SessionID})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+cutoff)
		pipe.Expire(ctx, key, c.retention)
	}
	_, err := pipe.Exec(ctx)
	metrics.RecordRedisCommand("record", time.Since(start))
	if err != nil {
		return fmt.Errorf("record session in redis: %w", err)
	}
	return nil
}

// Count returns the sessions recorded for value within the trailing window,
// not counting excludeSessionID.
func (c *RedisCounter) Count(ctx context.Context, dimension, value, excludeSessionID string, window time.Duration) (int, error) {
	if c.closed.Load() {
		return 0, ErrStoreClosed
	}
	if value == "" {
		return 0, nil
	}
	if !c.Serves(window) {
		return 0, fmt.Errorf("window %s outside redis retention %s", window, c.retention)
	}

	minMs := c.now().Add(-window).UnixMilli()
	key := c.key(dimension, value)

	start := time.Now()
	pipe := c.client.Pipeline()
	total := pipe.ZCount(ctx, key, strconv.FormatInt(minMs, 10), "+inf")
	var own *redis.FloatCmd
	if excludeSessionID != "" {
		own = pipe.ZScore(ctx, key, excludeSessionID)
	}
	_, err := pipe.Exec(ctx)
	metrics.RecordRedisCommand("zcount", time.Since(start))
	// ZSCORE of a missing member reports redis.Nil.
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("count %s sessions in redis: %w", dimension, err)
	}
	if err := total.Err(); err != nil {
		return 0, fmt.Errorf("count %s sessions in redis: %w", dimension, err)
	}

	n := int(total.Val())
	if own != nil {
		if score, err := own.Result(); err == nil && score >= float64(minMs) && n > 0 {
			n--
		}
	}
	return n, nil
}

// Ping checks the Redis connection.
func (c *RedisCounter) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrStoreClosed
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the client. Later calls are no-ops.
func (c *RedisCounter) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.client.Close()
}
