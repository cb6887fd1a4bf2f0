// Package ws streams opportunities and cycle reports to websocket clients.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/predarb/internal/domain"
	"github.com/alanyoungcy/predarb/internal/pipeline"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256
)

// Stream channels a client can subscribe to.
const (
	ChannelOpportunities = "opportunities"
	ChannelCycles        = "cycles"
	ChannelNotices       = "notices"
)

var defaultChannels = []string{ChannelOpportunities, ChannelCycles, ChannelNotices}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origins are enforced by the CORS layer.
		return true
	},
}

// envelope is the JSON frame sent to clients.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client represents a single WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	subs map[string]bool
	mu   sync.RWMutex
}

// subscribeMsg is the JSON message a client sends to change its channels,
// e.g. {"action":"unsubscribe","channels":["cycles"]}.
type subscribeMsg struct {
	Action   string   `json:"action"`
	Channels []string `json:"channels"`
}

// Hub manages a set of connected WebSocket clients and broadcasts emitted
// opportunities, cycle reports and notices to them. It doubles as a
// notification sender.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan broadcastMsg
	register   chan *client
	unregister chan *client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *slog.Logger
	startedAt  time.Time
}

// broadcastMsg carries a message along with its source channel so the hub
// can route it only to clients subscribed to that channel.
type broadcastMsg struct {
	channel string
	data    []byte
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan broadcastMsg, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "ws")),
		startedAt:  time.Now().UTC(),
	}
}

// Run starts the hub's main event loop. It handles client registration,
// unregistration, and message broadcasting until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Info("ws: client connected",
				slog.Int("total_clients", h.clientCount()),
			)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("ws: client disconnected",
				slog.Int("total_clients", h.clientCount()),
			)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if c.isSubscribed(msg.channel) {
					select {
					case c.send <- msg.data:
					default:
						h.logger.Warn("ws: dropping message for slow client")
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// publish queues a frame for broadcast. It never blocks the caller: when
// the queue is full the frame is dropped.
func (h *Hub) publish(channel, typ string, payload any) error {
	data, err := json.Marshal(envelope{Type: typ, Payload: payload})
	if err != nil {
		return fmt.Errorf("ws: marshal %s: %w", typ, err)
	}
	select {
	case h.broadcast <- broadcastMsg{channel: channel, data: data}:
		return nil
	default:
		return fmt.Errorf("ws: broadcast queue full, dropped %s", typ)
	}
}

// Send broadcasts a plain notice.
func (h *Hub) Send(_ context.Context, title, message string) error {
	return h.publish(ChannelNotices, "notice", map[string]string{"title": title, "message": message})
}

// SendOpportunity broadcasts an emitted opportunity.
func (h *Hub) SendOpportunity(_ context.Context, opp domain.ArbitrageOpportunity) error {
	return h.publish(ChannelOpportunities, "opportunity", opp)
}

// Name returns the sender identifier.
func (h *Hub) Name() string { return "ws" }

// ObserveCycle broadcasts a cycle report. It has the pipeline.Observer shape.
func (h *Hub) ObserveCycle(report pipeline.CycleReport, _ []domain.ArbitrageOpportunity) {
	if err := h.publish(ChannelCycles, "cycle", report); err != nil {
		h.logger.Warn("ws: cycle broadcast failed", slog.String("error", err.Error()))
	}
}

// Relay forwards opportunity payloads published on a bus channel, so one
// status server can stream what several engine instances emit. It returns
// when ctx is cancelled or the subscription closes.
func (h *Hub) Relay(ctx context.Context, bus domain.OpportunityBus, channel string) error {
	msgCh, err := bus.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("ws: relay %s: %w", channel, err)
	}
	h.logger.Info("ws: relaying bus channel", slog.String("channel", channel))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-msgCh:
			if !ok {
				h.logger.Warn("ws: bus subscription closed", slog.String("channel", channel))
				return nil
			}
			if err := h.publish(ChannelOpportunities, "opportunity", json.RawMessage(data)); err != nil {
				h.logger.Warn("ws: relay dropped message", slog.String("error", err.Error()))
			}
		}
	}
}

// HandleWS upgrades an HTTP request to a WebSocket connection and registers
// the client with the hub.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		subs: make(map[string]bool),
	}
	for _, ch := range defaultChannels {
		c.subs[ch] = true
	}

	c.sendHello()
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// clientCount returns the number of currently connected clients.
func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump reads messages from the WebSocket connection. It handles
// subscription management requests from the client.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws: unexpected close error",
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var sub subscribeMsg
		if err := json.Unmarshal(message, &sub); err == nil && sub.Action != "" {
			c.handleSubscription(sub)
		}
	}
}

func (c *client) handleSubscription(msg subscribeMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch strings.ToLower(msg.Action) {
	case "subscribe":
		for _, ch := range msg.Channels {
			c.subs[ch] = true
		}
	case "unsubscribe":
		for _, ch := range msg.Channels {
			delete(c.subs, ch)
		}
	}
}

// sendHello pushes a status frame so clients can mark the connection healthy
// before the next cycle completes.
func (c *client) sendHello() {
	uptime := max(int64(time.Since(c.hub.startedAt).Seconds()), 0)
	msg, err := json.Marshal(envelope{
		Type: "hello",
		Payload: map[string]any{
			"uptime_seconds": uptime,
			"channels":       defaultChannels,
		},
	})
	if err != nil {
		return
	}

	select {
	case c.send <- msg:
	default:
	}
}

// isSubscribed checks whether the client is subscribed to the given channel.
// A trailing "*" subscribes by prefix.
func (c *client) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.subs[channel] {
		return true
	}
	for sub := range c.subs {
		if prefix, ok := strings.CutSuffix(sub, "*"); ok && strings.HasPrefix(channel, prefix) {
			return true
		}
	}
	return false
}

// writePump pumps messages from the hub to the WebSocket connection as text
// frames, with periodic pings for keepalive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
