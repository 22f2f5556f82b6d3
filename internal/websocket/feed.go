// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/surveyguard/internal/eventprocessor"
	"github.com/tomtom215/surveyguard/internal/logging"
)

// Feed forwards scored-session events from a Watermill subscription to a hub.
type Feed struct {
	hub        *Hub
	subscriber message.Subscriber
	topic      string
}

// NewFeed creates a feed reading topic from subscriber.
func NewFeed(hub *Hub, subscriber message.Subscriber, topic string) *Feed {
	return &Feed{hub: hub, subscriber: subscriber, topic: topic}
}

// Serve subscribes and forwards events until ctx is canceled. A closed
// subscription while ctx is live is an error so the supervisor resubscribes.
func (f *Feed) Serve(ctx context.Context) error {
	messages, err := f.subscriber.Subscribe(ctx, f.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", f.topic, err)
	}
	logging.Info().Str("topic", f.topic).Msg("Live verdict feed subscribed")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("verdict subscription closed")
			}
			f.forward(msg)
		}
	}
}

func (f *Feed) forward(msg *message.Message) {
	// Malformed payloads are acked; redelivery cannot fix them.
	defer msg.Ack()

	ev, err := eventprocessor.DeserializeEvent(msg.Payload)
	if err != nil {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable verdict event")
		return
	}
	f.hub.BroadcastVerdict(ev)
}

// String implements fmt.Stringer for supervisor logging.
func (f *Feed) String() string {
	return "verdict-feed"
}
