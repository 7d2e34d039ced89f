package sink

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// PopupEvent is what a connected UI session renders: a transient popup with
// badge count, sound flag and auto-dismiss duration in milliseconds.
type PopupEvent struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	Icon       string `json:"icon"`
	DurationMS int64  `json:"duration_ms"`
	Sound      bool   `json:"sound"`
	Unread     int    `json:"unread"`
}

// Hub fans popup events out to the recipient's connected UI sockets. Write
// failures drop the connection and are otherwise swallowed; presentation
// never drives business logic.
type Hub struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]*sync.Mutex
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		conns:  make(map[*websocket.Conn]*sync.Mutex),
		logger: logger.With().Str("component", "sink_hub").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and keeps the socket registered until the
// peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.conns[conn] = &sync.Mutex{}
	h.mu.Unlock()

	// Drain the read side; we only push.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes one popup to every connected socket. Every listener
// stream and the reminder scan may broadcast concurrently, and the websocket
// protocol allows a single writer per connection, so writes are serialized
// through a per-connection lock.
func (h *Hub) Broadcast(ev PopupEvent) {
	type target struct {
		conn *websocket.Conn
		wmu  *sync.Mutex
	}

	h.mu.Lock()
	targets := make([]target, 0, len(h.conns))
	for c, wmu := range h.conns {
		targets = append(targets, target{conn: c, wmu: wmu})
	}
	h.mu.Unlock()

	for _, t := range targets {
		t.wmu.Lock()
		err := t.conn.WriteJSON(ev)
		t.wmu.Unlock()
		if err != nil {
			h.drop(t.conn)
		}
	}
}

// Connections reports how many UI sockets are attached.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		_ = c.Close()
	}
	h.conns = make(map[*websocket.Conn]*sync.Mutex)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		_ = conn.Close()
	}
}
