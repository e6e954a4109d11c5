package websocket

import (
	"sync"
	"sync/atomic"

	"github.com/LuckysHorizon/SmartReminder/internal/metrics"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
)

// Hub maintains the set of attached page contexts and broadcasts worker
// messages to them
type Hub struct {
	// Registered page contexts
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// Channel to signal termination
	stop     chan struct{}
	stopOnce sync.Once

	count     atomic.Int32
	onConnect func()
	log       *logger.Logger
}

// NewHub creates a new page-context hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		log:        log,
	}
}

// SetOnConnect registers a callback invoked whenever a page context attaches
// (pending-action replay and scheduler wake are wired here)
func (h *Hub) SetOnConnect(f func()) {
	h.onConnect = f
}

// Run processes hub events until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int32(len(h.clients)))
			metrics.ConnectedPages.Set(float64(len(h.clients)))
			h.log.Info("Page context attached", "pages", len(h.clients))
			if h.onConnect != nil {
				go h.onConnect()
			}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.count.Store(int32(len(h.clients)))
				metrics.ConnectedPages.Set(float64(len(h.clients)))
				h.log.Info("Page context detached", "pages", len(h.clients))
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.count.Store(int32(len(h.clients)))
		case <-h.stop:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.count.Store(0)
			metrics.ConnectedPages.Set(0)
			return
		}
	}
}

// Broadcast delivers a message to every attached page context (best effort)
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.stop:
	}
}

// ClientCount returns the number of attached page contexts
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Stop shuts the hub down and disconnects every page context
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}
