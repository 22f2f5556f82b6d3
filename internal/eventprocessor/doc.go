// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package eventprocessor publishes scored-session reports to downstream consumers.

Every report produced by the scoring engine is wrapped in a SessionScoredEvent
and published on a Watermill topic (default "scoring.session_scored"). Three
transports are supported:

  - memory: Watermill's in-process GoChannel pub/sub. Nothing leaves the
    process; useful for tests and single-binary deployments.
  - nats: NATS JetStream through watermill-nats, with reconnect handling and
    Nats-Msg-Id deduplication.
  - embedded: same as nats, against an in-process NATS server with JetStream
    storage under the configured store directory.

Publishing is wrapped in a gobreaker circuit breaker. When the broker is
unreachable the breaker opens and publish calls fail fast with
gobreaker.ErrOpenState; scoring itself never blocks on publication.

Usage:

	pub, err := eventprocessor.NewPublisher(ctx, eventprocessor.FromEventsConfig(&cfg.Events), nil)
	if err != nil {
	    return err
	}
	defer pub.Close()

	err = pub.PublishReport(ctx, report)

Consumers decode messages with DeserializeEvent. The message UUID equals the
event ID, which equals the report ID, so JetStream deduplicates retries.
*/
package eventprocessor
