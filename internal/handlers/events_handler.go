package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/events"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/observability"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The plugin's embedded view connects from arbitrary origins;
		// the server only listens on loopback.
		return true
	},
}

// EventsHandler upgrades connections into the events hub
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// HandleConnection upgrades HTTP to WebSocket and manages the connection
func (h *EventsHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	client := h.hub.NewClient(uuid.New().String(), conn)
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump()
}
