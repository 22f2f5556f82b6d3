// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DefaultNATSImage is the NATS image used by NewNATSContainer.
const DefaultNATSImage = "nats:2.12-alpine"

const natsPort = "4222/tcp"

// NATSContainer is a running NATS server with JetStream enabled.
type NATSContainer struct {
	testcontainers.Container
	// URL is a nats:// URL reachable from the test process.
	URL string
}

// NewNATSContainer starts a single JetStream-enabled NATS server.
func NewNATSContainer(ctx context.Context) (*NATSContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        DefaultNATSImage,
			ExposedPorts: []string{natsPort},
			Cmd:          []string{"-js"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(natsPort),
				wait.ForLog("Server is ready"),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create nats container: %w", err)
	}

	addr, err := container.PortEndpoint(ctx, natsPort, "")
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("container endpoint: %w", err)
	}
	return &NATSContainer{Container: container, URL: "nats://" + addr}, nil
}
