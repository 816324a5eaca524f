package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sportsmatch/internal/events"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512

	sendBufferSize = 256
)

// Client represents a WebSocket client connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// keys limits delivery to events of these aggregates; empty means everything
	keys map[string]struct{}
}

func (c *Client) wants(key string) bool {
	if len(c.keys) == 0 {
		return true
	}
	_, ok := c.keys[key]
	return ok
}

type outbound struct {
	key     string
	payload []byte
}

// Hub maintains the set of active clients and pushes domain events to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Events waiting to be fanned out
	broadcast chan outbound

	log zerolog.Logger

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, sendBufferSize),
		clients:    make(map[*Client]bool),
		log:        log.With().Str("component", "ws_hub").Logger(),
	}
}

// Run starts the WebSocket hub
func (h *Hub) Run(ctx context.Context) {
	h.log.Info().Msg("websocket hub started")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug().Int("clients", total).Msg("client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug().Int("clients", total).Msg("client disconnected")

		case msg := <-h.broadcast:
			h.fanout(msg)

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.log.Info().Msg("websocket hub shutting down")
			return
		}
	}
}

func (h *Hub) fanout(msg outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !client.wants(msg.key) {
			continue
		}
		select {
		case client.send <- msg.payload:
		default:
			// Client's send buffer is full, skip this client
			h.log.Warn().Str("key", msg.key).Msg("client send buffer full, skipping")
		}
	}
}

// Publish queues an event for every interested client.
func (h *Hub) Publish(ctx context.Context, e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- outbound{key: e.Key, payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetClientCount returns the current number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn().Err(err).Msg("websocket unexpected close")
			}
			break
		}
		// Clients only listen; inbound frames are ignored
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))

		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		// Add queued messages to the current websocket message
		n := len(c.send)
		for i := 0; i < n; i++ {
			w.Write([]byte{'\n'})
			w.Write(<-c.send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}

	// The hub closed the channel
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ServeWS handles WebSocket requests from clients. keys narrows the
// subscription to specific matches (or sports for tier events).
func ServeWS(hub *Hub, conn *websocket.Conn, keys []string) {
	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	if len(keys) > 0 {
		client.keys = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			client.keys[k] = struct{}{}
		}
	}

	client.hub.register <- client

	go client.writePump()

	// Run read pump in current goroutine (blocks until disconnect)
	client.readPump()
}
