package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/flowcraft-dev/flowcraft/internal/api/ws"
)

// DashboardHandler upgrades a CRUD-layer client to the live progress
// websocket feed (spec.md's supplemented dashboard surface).
type DashboardHandler struct {
	hub *ws.Hub
}

func NewDashboardHandler(hub *ws.Hub) *DashboardHandler {
	return &DashboardHandler{hub: hub}
}

func (h *DashboardHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade dashboard websocket")
		return
	}

	client := ws.NewClient(h.hub, conn)
	go client.WritePump()
	client.ReadPump()
}
