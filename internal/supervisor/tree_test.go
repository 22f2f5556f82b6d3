// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

// mockService counts starts and optionally fails the first n runs.
type mockService struct {
	name      string
	starts    atomic.Int32
	failFirst int32
}

func (m *mockService) Serve(ctx context.Context) error {
	n := m.starts.Add(1)
	if n <= m.failFirst {
		return errors.New("transient failure")
	}
	<-ctx.Done()
	return nil
}

func (m *mockService) String() string { return m.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5 || cfg.FailureDecay != 30 {
		t.Errorf("unexpected thresholds: %+v", cfg)
	}
	if cfg.FailureBackoff != 15*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected durations: %+v", cfg)
	}
}

func TestNewSupervisorTree_FillsDefaults(t *testing.T) {
	tree, err := NewSupervisorTree(nil, TreeConfig{FailureBackoff: time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("Root() returned nil")
	}
	if tree.config.FailureThreshold != 5 || tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("defaults not applied: %+v", tree.config)
	}
	if tree.config.FailureBackoff != time.Second {
		t.Errorf("FailureBackoff = %v, want 1s", tree.config.FailureBackoff)
	}
}

func TestSupervisorTree_RunsAllLayers(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}

	janitor := &mockService{name: "janitor"}
	publisher := &mockService{name: "publisher", failFirst: 2}
	server := &mockService{name: "server"}

	tree.AddDataService(janitor)
	tree.AddMessagingService(publisher)
	tree.AddAPIService(server)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if janitor.starts.Load() >= 1 && server.starts.Load() >= 1 && publisher.starts.Load() >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if janitor.starts.Load() != 1 || server.starts.Load() != 1 {
		t.Errorf("healthy services restarted: janitor=%d server=%d", janitor.starts.Load(), server.starts.Load())
	}
	if publisher.starts.Load() < 3 {
		t.Errorf("publisher starts = %d, want at least 3 after two failures", publisher.starts.Load())
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport: %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}
