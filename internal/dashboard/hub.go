// Package dashboard streams registry activity to browsers. Registry events are
// pushed over WebSocket as they happen, and a periodic status frame keeps idle
// clients current.
package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"sports-ai/internal/ml"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	DefaultStatusInterval = 5 * time.Second
	writeTimeout          = 5 * time.Second
	broadcastBuffer       = 100
)

// Frame is the envelope of every message sent to clients.
type Frame struct {
	Kind      string           `json:"kind"` // "event" or "status"
	Event     *ml.Event        `json:"event,omitempty"`
	Status    []ml.SportStatus `json:"status,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// StatusSource provides the per-sport summary sent in status frames.
type StatusSource interface {
	Status() []ml.SportStatus
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans registry events out to connected WebSocket clients. It implements
// ml.Listener; OnEvent never blocks and drops frames when the buffer is full.
type Hub struct {
	source   StatusSource
	interval time.Duration
	upgrader websocket.Upgrader

	clients   map[*client]bool
	clientsMu sync.RWMutex

	broadcastChannel chan Frame
	stopChannel      chan struct{}
	isRunning        bool
	mu               sync.Mutex
}

// NewHub creates a hub that polls source every interval while clients are
// connected. Call Start before serving connections.
func NewHub(source StatusSource, interval time.Duration) *Hub {
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	return &Hub{
		source:           source,
		interval:         interval,
		upgrader:         websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:          make(map[*client]bool),
		broadcastChannel: make(chan Frame, broadcastBuffer),
		stopChannel:      make(chan struct{}),
	}
}

// Start launches the broadcaster and status ticker.
func (h *Hub) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.isRunning {
		return fmt.Errorf("dashboard hub is already running")
	}
	go h.statusCollector()
	go h.clientBroadcaster()

	h.isRunning = true
	log.Info().Dur("interval", h.interval).Msg("Dashboard hub started")
	return nil
}

// Stop disconnects every client. A stopped hub cannot be restarted.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.isRunning {
		return
	}
	close(h.stopChannel)

	h.clientsMu.Lock()
	for c := range h.clients {
		c.conn.Close()
	}
	h.clients = make(map[*client]bool)
	h.clientsMu.Unlock()

	h.isRunning = false
	log.Info().Msg("Dashboard hub stopped")
}

// OnEvent queues e for broadcast.
func (h *Hub) OnEvent(e ml.Event) {
	h.enqueue(Frame{Kind: "event", Event: &e, Timestamp: time.Now().UTC()})
}

func (h *Hub) enqueue(f Frame) {
	select {
	case h.broadcastChannel <- f:
	default:
		log.Warn().Str("kind", f.Kind).Msg("Dashboard broadcast buffer full, dropping frame")
	}
}

func (h *Hub) statusFrame() Frame {
	f := Frame{Kind: "status", Timestamp: time.Now().UTC()}
	if h.source != nil {
		f.Status = h.source.Status()
	}
	return f
}

func (h *Hub) statusCollector() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if h.ClientCount() > 0 {
				h.enqueue(h.statusFrame())
			}
		case <-h.stopChannel:
			return
		}
	}
}

func (h *Hub) clientBroadcaster() {
	for {
		select {
		case f := <-h.broadcastChannel:
			h.broadcastToClients(f)
		case <-h.stopChannel:
			return
		}
	}
}

func (h *Hub) broadcastToClients(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal dashboard frame")
		return
	}

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for c := range h.clients {
		if err := c.write(data); err != nil {
			log.Debug().Err(err).Msg("Dropping WebSocket client")
			c.conn.Close()
			delete(h.clients, c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams frames until the client goes
// away. The first frame is always a status frame.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	c := &client{conn: conn}

	if data, err := json.Marshal(h.statusFrame()); err == nil {
		if err := c.write(data); err != nil {
			conn.Close()
			return
		}
	}

	h.clientsMu.Lock()
	h.clients[c] = true
	h.clientsMu.Unlock()

	// Reads only detect disconnects; client messages are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.clientsMu.Lock()
	delete(h.clients, c)
	h.clientsMu.Unlock()
	conn.Close()
}
