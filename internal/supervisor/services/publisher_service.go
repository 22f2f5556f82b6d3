// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package services

import (
	"context"
	"time"

	"github.com/tomtom215/surveyguard/internal/logging"
)

// ResultPublisher is satisfied by *eventprocessor.Publisher.
type ResultPublisher interface {
	Healthy(ctx context.Context) error
	BreakerState() string
	Close() error
}

// PublisherService ties the result publisher lifetime to the supervisor and
// logs health transitions.
type PublisherService struct {
	publisher     ResultPublisher
	probeInterval time.Duration
	probeTimeout  time.Duration
	name          string
	healthy       bool
}

// NewPublisherService probes publisher every probeInterval. A non-positive
// interval disables probing.
func NewPublisherService(publisher ResultPublisher, probeInterval time.Duration) *PublisherService {
	return &PublisherService{
		publisher:     publisher,
		probeInterval: probeInterval,
		probeTimeout:  5 * time.Second,
		name:          "result-publisher",
		healthy:       true,
	}
}

// Serve blocks until ctx is canceled, then closes the publisher.
func (p *PublisherService) Serve(ctx context.Context) error {
	var tick <-chan time.Time
	if p.probeInterval > 0 {
		ticker := time.NewTicker(p.probeInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			if err := p.publisher.Close(); err != nil {
				logging.Warn().Err(err).Str("service", p.name).Msg("Result publisher close failed")
				return err
			}
			logging.Info().Str("service", p.name).Msg("Result publisher stopped")
			return nil
		case <-tick:
			p.probe(ctx)
		}
	}
}

func (p *PublisherService) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	err := p.publisher.Healthy(probeCtx)
	switch {
	case err != nil && p.healthy:
		p.healthy = false
		logging.Warn().Err(err).
			Str("service", p.name).
			Str("breaker", p.publisher.BreakerState()).
			Msg("Result publisher unhealthy")
	case err == nil && !p.healthy:
		p.healthy = true
		logging.Info().Str("service", p.name).Msg("Result publisher recovered")
	}
}

// String implements fmt.Stringer for supervisor logging.
func (p *PublisherService) String() string {
	return p.name
}
