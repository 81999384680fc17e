// Package ws implements the live market feed: a hub of WebSocket
// clients with per-market subscriptions, dual-delivery market update
// broadcasts, and a periodic per-client snapshot push.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/oddsradar/oddsradar/internal/domain"
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

	// trendingPushSize caps the trending list in periodic snapshots.
	trendingPushSize = 5

	// defaultSnapshotInterval is used when no interval is configured.
	defaultSnapshotInterval = 30 * time.Second
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins. In production, restrict this to known origins.
		return true
	},
}

// Snapshotter supplies the periodic per-client snapshot payloads.
type Snapshotter interface {
	GlobalStats(ctx context.Context) domain.GlobalStats
	Trending(ctx context.Context, limit int) []domain.Market
}

// Envelope is the outbound message shape. Type is one of "connected",
// "subscribed", "unsubscribed", "market_update", "stats_update",
// "trending_update", "pong", or "error".
type Envelope struct {
	Type      string `json:"type"`
	MarketID  string `json:"market_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// inboundMsg is the JSON shape clients send: subscribe, unsubscribe,
// or ping.
type inboundMsg struct {
	Type     string `json:"type"`
	MarketID string `json:"market_id"`
}

// client is a single WebSocket connection with its topic set tracked by
// the hub, not the client itself.
type client struct {
	id              string
	hub             *Hub
	conn            *websocket.Conn
	send            chan []byte
	cancelSnapshots context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// Hub tracks connected clients and their per-market subscriptions.
// Invariant: topics holds no empty sets and no entries for departed
// clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	topics  map[string]map[*client]bool

	snapshots        Snapshotter
	snapshotInterval time.Duration
	logger           *slog.Logger
}

// NewHub creates a hub. snapshots may be nil, which disables the
// periodic snapshot push.
func NewHub(snapshots Snapshotter, snapshotInterval time.Duration, logger *slog.Logger) *Hub {
	if snapshotInterval <= 0 {
		snapshotInterval = defaultSnapshotInterval
	}
	return &Hub{
		clients:          make(map[*client]bool),
		topics:           make(map[string]map[*client]bool),
		snapshots:        snapshots,
		snapshotInterval: snapshotInterval,
		logger:           logger.With(slog.String("component", "ws")),
	}
}

// HandleWS upgrades an HTTP request to a WebSocket connection and
// registers the client with the hub.
// GET /ws/markets
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		id:              uuid.NewString(),
		hub:             h,
		conn:            conn,
		send:            make(chan []byte, sendBufferSize),
		cancelSnapshots: cancel,
	}

	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws: client connected",
		slog.String("client_id", c.id),
		slog.Int("total_clients", total),
	)

	c.sendEnvelope(Envelope{Type: "connected", Message: "Connected to market updates"})

	if h.snapshots != nil {
		go c.snapshotLoop(ctx)
	}
	go c.writePump()
	go c.readPump()
}

// Subscribe adds the client to a market topic. Idempotent.
func (h *Hub) subscribe(c *client, marketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	set := h.topics[marketID]
	if set == nil {
		set = make(map[*client]bool)
		h.topics[marketID] = set
	}
	set[c] = true
}

// Unsubscribe removes the client from a market topic, deleting the
// topic entry when its set empties. Unsubscribing from an unknown topic
// is a no-op.
func (h *Hub) unsubscribe(c *client, marketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.topics[marketID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.topics, marketID)
	}
}

// removeClient unregisters a client and scrubs it from every topic set.
func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for marketID, set := range h.topics {
		delete(set, c)
		if len(set) == 0 {
			delete(h.topics, marketID)
		}
	}
	total := len(h.clients)
	h.mu.Unlock()

	c.cancelSnapshots()
	c.closeSend()

	h.logger.Info("ws: client disconnected",
		slog.String("client_id", c.id),
		slog.Int("total_clients", total),
	)
}

// BroadcastMarketUpdate sends a market_update envelope to subscribers
// of the market's topic and, independently, to every connected client.
// A client may receive the same update twice; consumers deduplicate by
// market_id and timestamp if they care. Sends are best effort: a full
// send buffer drops the message for that client only.
func (h *Hub) BroadcastMarketUpdate(marketID string, payload any) {
	data, err := json.Marshal(Envelope{
		Type:      "market_update",
		MarketID:  marketID,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error("ws: marshal market update", slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.topics[marketID] {
		c.trySend(data)
	}
	for c := range h.clients {
		c.trySend(data)
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TopicCount returns the number of markets with at least one subscriber.
func (h *Hub) TopicCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics)
}

// trySend queues data for the client without blocking. Slow clients
// lose messages rather than stall the broadcast. Sends after the
// client departed are silently dropped.
func (c *client) trySend(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("ws: dropping message for slow client",
			slog.String("client_id", c.id),
		)
	}
}

// closeSend closes the send channel exactly once; trySend holds the
// same lock, so no send can race the close.
func (c *client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// sendEnvelope marshals and queues an envelope for this client.
func (c *client) sendEnvelope(env Envelope) {
	if env.Timestamp == "" {
		env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	c.trySend(data)
}

// readPump reads inbound control messages from the connection. A
// malformed frame gets an error envelope back; the connection stays
// open.
func (c *client) readPump() {
	defer func() {
		c.hub.removeClient(c)
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
					slog.String("client_id", c.id),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var msg inboundMsg
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendEnvelope(Envelope{Type: "error", Message: "invalid message"})
			continue
		}

		switch msg.Type {
		case "subscribe":
			if msg.MarketID == "" {
				c.sendEnvelope(Envelope{Type: "error", Message: "market_id required"})
				continue
			}
			c.hub.subscribe(c, msg.MarketID)
			c.sendEnvelope(Envelope{Type: "subscribed", MarketID: msg.MarketID})
		case "unsubscribe":
			if msg.MarketID == "" {
				c.sendEnvelope(Envelope{Type: "error", Message: "market_id required"})
				continue
			}
			c.hub.unsubscribe(c, msg.MarketID)
			c.sendEnvelope(Envelope{Type: "unsubscribed", MarketID: msg.MarketID})
		case "ping":
			c.sendEnvelope(Envelope{Type: "pong"})
		default:
			c.sendEnvelope(Envelope{Type: "error", Message: "unknown message type"})
		}
	}
}

// snapshotLoop pushes stats_update and trending_update envelopes on the
// configured interval until the client departs.
func (c *client) snapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(c.hub.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pushSnapshot(ctx)
		}
	}
}

func (c *client) pushSnapshot(ctx context.Context) {
	stats := c.hub.snapshots.GlobalStats(ctx)
	c.sendEnvelope(Envelope{Type: "stats_update", Data: stats})

	trending := c.hub.snapshots.Trending(ctx, trendingPushSize)
	items := make([]map[string]any, 0, len(trending))
	for _, m := range trending {
		items = append(items, map[string]any{
			"id":          m.ID,
			"title":       m.Title,
			"probability": m.Probability,
			"change_24h":  m.Change24h,
		})
	}
	c.sendEnvelope(Envelope{Type: "trending_update", Data: items})
}

// writePump pumps messages from the hub to the WebSocket connection and
// sends periodic ping frames for keepalive.
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
