// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/surveyguard/internal/eventprocessor"
	"github.com/tomtom215/surveyguard/internal/logging"
)

// Message types for WebSocket communication
const (
	MessageTypeVerdict = eventprocessor.EventTypeSessionScored
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
)

// Message is one WebSocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`

	flagged bool
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

// NewHub creates a hub with a 256-message broadcast queue.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Serve runs the hub until ctx is canceled, then closes every client.
// Lifecycle events are drained before broadcasts so a client registered
// before a verdict was queued always receives it.
func (h *Hub) Serve(ctx context.Context) error {
	defer h.stopOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return nil
		default:
		}

		select {
		case client := <-h.register:
			h.add(client)
			continue
		case client := <-h.unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return nil
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (h *Hub) String() string {
	return "websocket-hub"
}

// Register adds client. It returns false when the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.mu.Unlock()
	logging.Info().Uint64("client_id", client.id).Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	logging.Info().Uint64("client_id", client.id).Int("total_clients", n).Msg("websocket client disconnected")
}

// sortedClients returns clients in connection order. Callers hold h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var toRemove []*Client
	for _, client := range h.sortedClients() {
		if message.Type == MessageTypeVerdict && client.flaggedOnly && !message.flagged {
			continue
		}
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		logging.Warn().Uint64("client_id", client.id).Msg("websocket client too slow, disconnected")
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	clients := h.sortedClients()
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// BroadcastVerdict queues ev for every interested client.
func (h *Hub) BroadcastVerdict(ev *eventprocessor.SessionScoredEvent) {
	if ev == nil {
		return
	}
	message := Message{Type: MessageTypeVerdict, Data: ev, flagged: ev.Flagged}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("session_id", ev.SessionID).Msg("broadcast channel full, dropping verdict")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
