package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/omegonstudio/fotos-patagonia-sub000/internal/types"
)

// Hub maintains the set of connected storefront clients and fans catalog
// events out to them.
type Hub struct {
	// Registered clients mapped by connection ID
	clients map[string]*Client

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect clients map
	mu sync.RWMutex

	// Channel to broadcast events
	broadcast chan *types.Event
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *types.Event, 16),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if existing, exists := h.clients[client.id]; exists {
				close(existing.send)
			}
			h.clients[client.id] = client
			h.mu.Unlock()
			slog.Info("WebSocket client connected", slog.String("client_id", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
				slog.Info("WebSocket client disconnected", slog.String("client_id", client.id))
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.broadcastAll(event)
		}
	}
}

// RegisterClient registers a new client
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// BroadcastAll queues an event for delivery to every connected client.
func (h *Hub) BroadcastAll(event *types.Event) {
	h.broadcast <- event
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastAll(event *types.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop the event rather than block the hub.
			slog.Warn("Dropping event for slow WebSocket client", slog.String("client_id", id))
		}
	}
}
