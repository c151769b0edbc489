// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/shelfwise/internal/logging"
)

// registerTimeout bounds handing a new connection to the hub.
const registerTimeout = 5 * time.Second

// WebSocket upgrades the connection and registers it with the hub for the
// caller's live notifications. The store tray stays authoritative; pushes
// are best effort.
//
// @Summary Live notification stream
// @Description Upgrades to a WebSocket. The server pushes {"type":"notification","data":{...}} messages for the caller and answers {"type":"ping"} with {"type":"pong"}.
// @Tags Notifications
// @Success 101 "Switching protocols"
// @Failure 401 {object} models.APIResponse "Not authenticated"
// @Failure 503 {object} models.APIResponse "Push delivery disabled"
// @Security BearerAuth
// @Router /ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if h.svc.Hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "live notifications unavailable", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), registerTimeout)
	defer cancel()
	client, err := h.svc.Hub.Accept(ctx, conn, userID)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket hub unavailable")
		return
	}
	logging.Ctx(r.Context()).Debug().Uint64("client_id", client.ID()).Msg("websocket connected")
}
