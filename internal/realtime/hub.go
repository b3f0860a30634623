// Package realtime pushes newly created sightings to connected browsers
// over websockets, so open maps gain pins without a refresh.
//
// ARCHITECTURE:
// One Hub goroutine owns the client set. Handlers never touch the set
// directly — they send on channels (register / unregister / broadcast)
// and the Run loop serializes everything. That makes the hub safe
// without per-client locking in the hot path.
//
//	/ws handler ── Register ──▶ ┌─────┐
//	service      ── Broadcast ─▶│ Run │──▶ WriteMessage to each client
//	conn closed  ── Unregister ▶ └─────┘
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/sakif/ghost-atlas/internal/model"
)

// event is the wire format pushed to clients. Clients key on data.id to
// collapse duplicate arrivals (their own POST response plus this push).
type event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// EventSightingCreated is emitted exactly once per stored sighting.
const EventSightingCreated = "sighting_created"

// Hub fans out sighting events to every connected websocket client.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	stopOnce   sync.Once
	logger     *slog.Logger
}

// NewHub creates a Hub. Call Run in a goroutine before registering
// clients, and Stop on shutdown.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run is the hub's event loop. It owns h.clients exclusively: register,
// unregister, and broadcast are all handled here, one at a time.
// Run returns after Stop, closing every remaining connection.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.clients[conn] = true
			h.logger.Info("websocket client connected", slog.Int("clients", len(h.clients)))

		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.logger.Info("websocket client disconnected", slog.Int("clients", len(h.clients)))

		case msg := <-h.broadcast:
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					// A dead client: drop it and move on. The read loop's
					// Unregister for the same conn is a no-op after this.
					h.logger.Warn("dropping websocket client", slog.String("error", err.Error()))
					delete(h.clients, conn)
					conn.Close()
				}
			}

		case <-h.done:
			for conn := range h.clients {
				conn.Close()
			}
			h.clients = make(map[*websocket.Conn]bool)
			return
		}
	}
}

// Stop shuts the hub down and closes all connections. Safe to call more
// than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register hands a new connection to the hub. The hub takes ownership
// of writes; the caller keeps reading (to observe close frames) and
// calls Unregister when the read loop ends.
func (h *Hub) Register(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

// Unregister removes a connection and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BroadcastSighting pushes one sighting_created event to every client.
// This is the single emission point per insert — the service calls it
// exactly once after a successful Create.
func (h *Hub) BroadcastSighting(s *model.SightingRecord) {
	msg, err := json.Marshal(event{Type: EventSightingCreated, Data: s})
	if err != nil {
		h.logger.Error("marshaling sighting event", slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}
