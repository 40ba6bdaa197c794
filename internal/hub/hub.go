// Package hub streams service events to browser clients over SSE.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"storyweave/internal/service"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// client is one connected SSE stream
type client struct {
	id      string
	graphID string
	events  chan []byte
}

// Hub manages SSE client connections
type Hub struct {
	logger     *log.Logger
	keepAlive  time.Duration
	mu         sync.RWMutex
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan service.Event
}

// New creates a new Hub
func New(logger *log.Logger) *Hub {
	return &Hub{
		logger:     logger,
		keepAlive:  30 * time.Second,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan service.Event, 256),
	}
}

// Run starts the hub's event loop and feeds it from bus until ctx is done
func (h *Hub) Run(ctx context.Context, bus *service.EventBus) {
	events := make(chan service.Event, 256)
	bus.Subscribe(events)
	defer bus.Unsubscribe(events)

	for {
		select {
		case <-ctx.Done():
			h.drainBroadcasts()
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.events)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("SSE client connected", "client", c.id, "graph", c.graphID, "total", total)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.events)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("SSE client disconnected", "client", c.id, "total", total)

		case ev := <-events:
			h.send(ev)

		case ev := <-h.broadcast:
			h.send(ev)
		}
	}
}

// drainBroadcasts delivers broadcasts queued before shutdown
func (h *Hub) drainBroadcasts() {
	for {
		select {
		case ev := <-h.broadcast:
			h.send(ev)
		default:
			return
		}
	}
}

// send queues ev on every client watching its graph. Events without a graph
// go to every client.
func (h *Hub) send(ev service.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to marshal event", "type", ev.Type, "err", err)
		return
	}
	msg := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, data))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if ev.GraphID != "" && c.graphID != "" && c.graphID != ev.GraphID {
			continue
		}
		select {
		case c.events <- msg:
		default:
			h.logger.Warn("SSE client is slow, skipping message", "client", c.id)
		}
	}
}

// Broadcast sends an event straight to connected clients without going
// through the bus. Events queued before Run stops are still delivered.
func (h *Hub) Broadcast(ev service.Event) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("Broadcast channel full, dropping event", "type", ev.Type)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles SSE connections. The optional graph query parameter
// restricts the stream to events of one graph.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	c := &client{
		id:      uuid.NewString(),
		graphID: r.URL.Query().Get("graph"),
		events:  make(chan []byte, 64),
	}

	select {
	case h.register <- c:
	case <-r.Context().Done():
		return
	}
	defer func() {
		select {
		case h.unregister <- c:
		case <-time.After(time.Second):
		}
	}()

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.events:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
