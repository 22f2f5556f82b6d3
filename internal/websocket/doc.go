// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package websocket streams scored-session verdicts to dashboards over
WebSocket connections (gorilla/websocket).

# Components

  - Hub: tracks connected clients and fans verdicts out to them. It runs as
    a supervised service.
  - Client: one connection with a read pump (ping/pong, close detection) and
    a write pump (JSON messages, keepalive pings).
  - Feed: subscribes to the result topic through Watermill and hands every
    decoded SessionScoredEvent to the hub.
  - Handler: upgrades GET /api/v1/stream requests and registers the client.

# Message Format

Every frame is a JSON object with a type and a payload:

	{"type": "session_scored", "data": {"event_id": "...", "session_id": "...", "flagged": true, ...}}

Clients may send {"type": "ping"} and receive {"type": "pong"}. Connecting
with ?flagged=true limits the stream to flagged sessions.

# Delivery

Delivery is best effort. A client whose send buffer is full is disconnected
rather than allowed to stall the hub, and the broadcast queue drops messages
when it is full. Clients are served in connection order.
*/
package websocket
