// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package eventprocessor

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/surveyguard/internal/metrics"
)

func TestNewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test-breaker"))

	if cb.Name() != "test-breaker" {
		t.Errorf("Expected name=test-breaker, got %s", cb.Name())
	}
	if state := CircuitBreakerState(cb); state != "closed" {
		t.Errorf("Expected initial state=closed, got %s", state)
	}
}

func TestExecuteWithBreaker(t *testing.T) {
	t.Run("successful execution", func(t *testing.T) {
		cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("success-test"))

		result, err := ExecuteWithBreaker(cb, func() (interface{}, error) {
			return "success", nil
		})
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if result != "success" {
			t.Errorf("Expected 'success', got %v", result)
		}
	})

	t.Run("circuit opens after failures", func(t *testing.T) {
		cb := NewCircuitBreaker(CircuitBreakerConfig{
			Name:             "open-test",
			MaxRequests:      1,
			Interval:         time.Second,
			Timeout:          time.Second,
			FailureThreshold: 2,
		})
		testErr := errors.New("fail")

		for i := 0; i < 2; i++ {
			if _, err := ExecuteWithBreaker(cb, func() (interface{}, error) { return nil, testErr }); !errors.Is(err, testErr) {
				t.Fatalf("call %d: expected %v, got %v", i, testErr, err)
			}
		}

		_, err := ExecuteWithBreaker(cb, func() (interface{}, error) {
			return "should not execute", nil
		})
		if !errors.Is(err, gobreaker.ErrOpenState) {
			t.Errorf("Expected ErrOpenState, got %v", err)
		}

		if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("open-test", "rejected")); got != 1 {
			t.Errorf("rejected requests = %v, want 1", got)
		}
		if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("open-test")); got != 2 {
			t.Errorf("state gauge = %v, want 2 (open)", got)
		}
	})
}

func TestCircuitBreakerRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "recovery-test",
		MaxRequests:      1,
		Interval:         100 * time.Millisecond,
		Timeout:          100 * time.Millisecond,
		FailureThreshold: 1,
	})

	_, _ = ExecuteWithBreaker(cb, func() (interface{}, error) {
		return nil, errors.New("fail")
	})
	if state := CircuitBreakerState(cb); state != "open" {
		t.Fatalf("Expected state=open, got %s", state)
	}

	time.Sleep(150 * time.Millisecond)

	if _, err := ExecuteWithBreaker(cb, func() (interface{}, error) { return "ok", nil }); err != nil {
		t.Fatalf("half-open probe failed: %v", err)
	}
	if state := CircuitBreakerState(cb); state != "closed" {
		t.Errorf("Expected state=closed after recovery, got %s", state)
	}
}
