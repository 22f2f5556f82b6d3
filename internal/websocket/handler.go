// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package websocket

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/surveyguard/internal/logging"
)

// NewHandler upgrades requests to WebSocket connections registered with hub.
// Browser origins must appear in allowedOrigins unless it contains "*";
// requests without an Origin header are always accepted.
func NewHandler(hub *Hub, allowedOrigins []string) http.Handler {
	allowAll := false
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		origins[o] = true
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowAll || origins[origin]
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flaggedOnly, _ := strconv.ParseBool(r.URL.Query().Get("flagged"))

		// Upgrade writes the HTTP error response itself.
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.CtxWarn(r.Context()).Err(err).Msg("websocket upgrade failed")
			return
		}

		client := NewClient(hub, conn, flaggedOnly)
		if !hub.Register(client) {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "stream unavailable"))
			_ = conn.Close()
			return
		}
		client.Start()
	})
}
