// Package notify pushes aggregate updates to websocket-connected display
// dependents. The hub owns the client set; registration, removal, and
// broadcast all go through its channels.
package notify

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/HenilJainIO/trapsight/internal/domain"
	"github.com/HenilJainIO/trapsight/internal/ports"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Hub struct {
	obs        ports.Observability
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
}

func NewHub(obs ports.Observability) *Hub {
	return &Hub{
		obs:        obs,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 16),
	}
}

// Run owns the client set until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer; drop it rather than stall the hub.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// AggregateUpdated broadcasts the new fleet KPIs to every connected client.
func (h *Hub) AggregateUpdated(kpis domain.FleetKPIs) {
	msg, err := json.Marshal(map[string]any{"type": "kpis", "payload": kpis})
	if err != nil {
		h.obs.LogError("kpi_broadcast_marshal", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		// Hub not running or saturated; updates are periodic, skip this one.
	}
}

// HandleWS upgrades the connection and attaches it to the hub.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.obs.LogError("ws_upgrade_failed", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, 32)}
	h.register <- c
	go c.writePump()
	go c.readPump()
}

var _ ports.Notifier = (*Hub)(nil)
