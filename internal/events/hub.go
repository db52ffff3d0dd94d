package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"vidhub/pkg/models"
)

var ErrHubBusy = errors.New("event hub busy")

type client struct {
	userID string
	target string // only events for this target id; "" receives all
	send   chan []byte
}

func (c *client) wants(ev models.EngagementEvent) bool {
	return c.target == "" || c.target == ev.TargetID
}

// Hub keeps live websocket clients and broadcasts events to them. All
// client bookkeeping happens on the Run goroutine.
type Hub struct {
	mu         sync.Mutex
	clients    map[*client]struct{}
	broadcast  chan models.EngagementEvent
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan models.EngagementEvent, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run handles registration and broadcasting until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			log.Printf("event client connected user=%q target=%q", c.userID, c.target)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				log.Printf("event client disconnected user=%q", c.userID)
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				log.Println("marshal event:", err)
				continue
			}
			h.mu.Lock()
			for c := range h.clients {
				if !c.wants(ev) {
					continue
				}
				select {
				case c.send <- data:
				default:
					log.Printf("event client send buffer full, dropping user=%q", c.userID)
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues ev for broadcast without blocking on slow clients.
func (h *Hub) Publish(ctx context.Context, ev models.EngagementEvent) error {
	select {
	case h.broadcast <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("publish %s: %w", ev.Type, ErrHubBusy)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
