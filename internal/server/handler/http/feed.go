package http

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ChangeEvent is the message broadcast to feed subscribers whenever the
// ticket collection changes. Clients treat it as a refresh hint and
// re-fetch; no ticket data travels over the feed.
type ChangeEvent struct {
	Type string `json:"type"`
}

// TicketsChanged is the only event type currently emitted.
const TicketsChanged = "tickets_changed"

// FeedHub maintains the set of websocket subscribers to the ticket change
// feed and broadcasts change events to all of them.
type FeedHub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewFeedHub creates an empty hub.
func NewFeedHub(log *zap.Logger) *FeedHub {
	return &FeedHub{
		log: log,
		upgrader: websocket.Upgrader{
			// The feed carries no sensitive data and the API already runs
			// CORS; accept any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Handle upgrades GET /api/tickets/feed to a websocket and keeps the
// connection registered until the peer goes away.
func (h *FeedHub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("feed upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	// Drain incoming frames; the feed is one-way. ReadMessage returning
	// an error is the disconnect signal.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// NotifyTicketsChanged broadcasts a change event to every subscriber.
// Connections that fail to accept the write are dropped.
func (h *FeedHub) NotifyTicketsChanged() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(ChangeEvent{Type: TicketsChanged}); err != nil {
			h.log.Warn("feed write failed, dropping subscriber", zap.Error(err))
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}

// SubscriberCount reports the number of live feed connections.
func (h *FeedHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
