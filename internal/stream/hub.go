// Package stream broadcasts analysis progress events to WebSocket
// subscribers. The hub fans one event out to every connected client;
// clients that cannot keep up are dropped rather than allowed to stall
// a run.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/observability"
)

// HubConfig configures hub timing.
type HubConfig struct {
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// PongTimeout is how long to wait for a pong before the client is
	// considered dead.
	PongTimeout time.Duration
	// WriteTimeout is the timeout for writing one frame.
	WriteTimeout time.Duration
	// SendBuffer is the per-client event buffer. A client whose buffer
	// fills is disconnected.
	SendBuffer int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		PingInterval: 30 * time.Second,
		PongTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   256,
	}
}

// Hub tracks connected WebSocket clients and broadcasts progress
// events to all of them.
type Hub struct {
	config  HubConfig
	log     zerolog.Logger
	metrics *observability.Metrics

	clients   map[*client]struct{}
	clientsMu sync.Mutex

	done     chan struct{}
	closedMu sync.Mutex
	closed   bool

	wg sync.WaitGroup

	upgrader websocket.Upgrader
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Options for creating a Hub. Zero values fall back to defaults.
type Options struct {
	Config  *HubConfig
	Logger  *zerolog.Logger
	Metrics *observability.Metrics
}

// NewHub creates a hub ready to accept connections.
func NewHub(opts Options) *Hub {
	cfg := DefaultHubConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Hub{
		config:  cfg,
		log:     logger,
		metrics: opts.Metrics,
		clients: make(map[*client]struct{}),
		done:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The event stream is read-only public data.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and streams events until the client
// disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.closedMu.Lock()
	closed := h.closed
	h.closedMu.Unlock()
	if closed {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
	}

	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.clientsMu.Unlock()

	if h.metrics != nil {
		h.metrics.WSClientsConnected.Inc()
	}
	h.log.Debug().Str("remote", conn.RemoteAddr().String()).Int("clients", count).Msg("websocket client connected")

	h.wg.Add(2)
	go h.writeLoop(c)
	go h.readLoop(c)
}

// Broadcast sends one event to every connected client. Marshal happens
// once; clients with a full buffer are dropped.
func (h *Hub) Broadcast(ev domain.ProgressEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Msg("progress event not serializable")
		return
	}

	h.clientsMu.Lock()
	var stalled []*client
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			stalled = append(stalled, c)
		}
	}
	h.clientsMu.Unlock()

	for _, c := range stalled {
		h.log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("websocket client too slow, dropping")
		h.drop(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and stops the hub. Safe to call more
// than once.
func (h *Hub) Close() error {
	h.closedMu.Lock()
	if h.closed {
		h.closedMu.Unlock()
		return nil
	}
	h.closed = true
	close(h.done)
	h.closedMu.Unlock()

	h.clientsMu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.Unlock()

	for _, c := range clients {
		h.drop(c)
	}

	h.wg.Wait()
	return nil
}

// drop removes a client and closes its connection. Idempotent per
// client: only the goroutine that removes it from the map closes it.
func (h *Hub) drop(c *client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	h.clientsMu.Unlock()

	if !ok {
		return
	}

	close(c.send)
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(h.config.WriteTimeout))
	c.conn.Close()

	if h.metrics != nil {
		h.metrics.WSClientsConnected.Dec()
	}
}

// writeLoop pushes buffered events and periodic pings to one client.
func (h *Hub) writeLoop(c *client) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		case <-h.done:
			return
		}
	}
}

// readLoop consumes control frames so pongs are processed and
// disconnects are noticed promptly. Client messages are discarded: the
// stream is one-way.
func (h *Hub) readLoop(c *client) {
	defer h.wg.Done()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

// Forward consumes events from a runner's channel and broadcasts each
// one. It returns when the channel is closed. Meant to run as a
// goroutine beside Runner.Run.
func (h *Hub) Forward(events <-chan domain.ProgressEvent) {
	for ev := range events {
		h.Broadcast(ev)
	}
}
