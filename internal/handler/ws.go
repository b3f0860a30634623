package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sakif/ghost-atlas/internal/realtime"
)

// WSHandler upgrades HTTP connections to websockets and hands them to
// the realtime hub. The connection is push-only from the server's point
// of view: clients receive sighting_created events and send nothing
// meaningful back.
type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a WSHandler attached to the given hub.
func NewWSHandler(hub *realtime.Hub, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same-origin pages only — the map and form are served by
			// this server, nothing else should subscribe.
			CheckOrigin: func(r *http.Request) bool {
				return r.Header.Get("Origin") == "" || sameHost(r)
			},
		},
	}
}

func sameHost(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// HandleWS upgrades the request and keeps reading until the client goes
// away. The read loop exists to observe close frames and connection
// errors — all writes happen in the hub.
//
// HTTP: GET /ws
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.hub.Register(conn)

	go func() {
		defer h.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
