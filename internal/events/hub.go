// Package events pushes entity state changes to connected warehouse
// terminals over websockets, so a terminal sees a bale disappear from the
// eligible list the moment another terminal reserves it.
package events

import (
	"net/http"
	"sync"
	"time"

	"textile-backend/internal/timeutil"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is one state change broadcast to every connected terminal.
type Event struct {
	Type      string    `json:"type"`   // checklist.locked, shipment.status, bale.reserved, ...
	Entity    string    `json:"entity"` // checklist, shipment, bale, lot
	ID        int       `json:"id"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is what the service layer sees. A nil publisher is valid and
// drops events, which keeps unit tests free of websocket plumbing.
type Publisher interface {
	Publish(e Event)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Hub struct {
	log        *zap.Logger
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan Event
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:       log,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Event, 64),
	}
}

// Run fans events out to every connected client. Call in its own goroutine.
func (h *Hub) Run() {
	for e := range h.broadcast {
		h.clientsMux.Lock()
		for conn := range h.clients {
			if err := conn.WriteJSON(e); err != nil {
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.clientsMux.Unlock()
	}
}

// Publish queues an event; drops it if the hub is saturated rather than
// blocking a warehouse operation on slow terminals.
func (h *Hub) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = timeutil.Now()
	}
	select {
	case h.broadcast <- e:
	default:
		h.log.Warn("event dropped, broadcast buffer full",
			zap.String("type", e.Type), zap.Int("id", e.ID))
	}
}

// ServeWS upgrades the connection and registers the terminal.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.clientsMux.Lock()
	h.clients[conn] = true
	h.clientsMux.Unlock()

	// Reader loop exists only to notice the client going away.
	go func() {
		defer func() {
			h.clientsMux.Lock()
			delete(h.clients, conn)
			h.clientsMux.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
