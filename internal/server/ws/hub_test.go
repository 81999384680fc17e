package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oddsradar/oddsradar/internal/domain"
)

type fakeSnapshots struct{}

func (fakeSnapshots) GlobalStats(ctx context.Context) domain.GlobalStats {
	return domain.GlobalStats{TotalMarkets: 2, ActiveMarkets: 1}
}

func (fakeSnapshots) Trending(ctx context.Context, limit int) []domain.Market {
	return []domain.Market{
		{ID: "kalshi_A", Title: "A", Probability: 0.6, Change24h: 3.5},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestTopicRegistryInvariants(t *testing.T) {
	h := NewHub(nil, time.Minute, discard())
	c1 := &client{id: "c1", hub: h, send: make(chan []byte, 4), cancelSnapshots: func() {}}
	c2 := &client{id: "c2", hub: h, send: make(chan []byte, 4), cancelSnapshots: func() {}}
	h.clients[c1] = true
	h.clients[c2] = true

	h.subscribe(c1, "kalshi_A")
	h.subscribe(c1, "kalshi_A") // idempotent
	h.subscribe(c2, "kalshi_A")
	h.subscribe(c2, "poly_B")

	if got := h.TopicCount(); got != 2 {
		t.Fatalf("TopicCount = %d, want 2", got)
	}

	// Unsubscribing an unknown topic is a no-op.
	h.unsubscribe(c1, "unknown")
	if got := h.TopicCount(); got != 2 {
		t.Fatalf("TopicCount after bogus unsubscribe = %d, want 2", got)
	}

	// Empty sets are deleted, not left behind.
	h.unsubscribe(c2, "poly_B")
	if got := h.TopicCount(); got != 1 {
		t.Fatalf("TopicCount after emptying poly_B = %d, want 1", got)
	}

	// A departing client is scrubbed from every topic.
	h.removeClient(c1)
	h.mu.RLock()
	set := h.topics["kalshi_A"]
	_, c1Present := set[c1]
	h.mu.RUnlock()
	if c1Present {
		t.Error("removed client still present in topic set")
	}
	if got := h.ClientCount(); got != 1 {
		t.Errorf("ClientCount = %d, want 1", got)
	}

	h.removeClient(c2)
	if got := h.TopicCount(); got != 0 {
		t.Errorf("TopicCount after all clients left = %d, want 0", got)
	}
}

func TestRemoveClientIdempotent(t *testing.T) {
	h := NewHub(nil, time.Minute, discard())
	c := &client{id: "c", hub: h, send: make(chan []byte, 1), cancelSnapshots: func() {}}
	h.clients[c] = true

	h.removeClient(c)
	h.removeClient(c) // must not panic on double close
}

// dial connects to the hub and consumes the connection confirmation
// every client receives first.
func dial(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	if env := readEnvelope(t, conn); env.Type != "connected" {
		t.Fatalf("first frame = %q, want connected", env.Type)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return env
}

func TestPingPongRoundTrip(t *testing.T) {
	h := NewHub(nil, time.Minute, discard())
	conn, done := dial(t, h)
	defer done()

	if err := conn.WriteJSON(inboundMsg{Type: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if env := readEnvelope(t, conn); env.Type != "pong" {
		t.Fatalf("got %q, want pong", env.Type)
	}
}

func TestMalformedMessageKeepsConnectionOpen(t *testing.T) {
	h := NewHub(nil, time.Minute, discard())
	conn, done := dial(t, h)
	defer done()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if env := readEnvelope(t, conn); env.Type != "error" {
		t.Fatalf("got %q, want error", env.Type)
	}

	// The connection still works after the error.
	if err := conn.WriteJSON(inboundMsg{Type: "ping"}); err != nil {
		t.Fatalf("write after error: %v", err)
	}
	if env := readEnvelope(t, conn); env.Type != "pong" {
		t.Fatalf("got %q, want pong", env.Type)
	}
}

func TestConnectedConfirmation(t *testing.T) {
	h := NewHub(nil, time.Minute, discard())
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	env := readEnvelope(t, conn)
	if env.Type != "connected" {
		t.Fatalf("got %q, want connected", env.Type)
	}
	if env.Timestamp == "" {
		t.Error("connected envelope missing timestamp")
	}
}

func TestSubscribeAndUnsubscribeAcks(t *testing.T) {
	h := NewHub(nil, time.Minute, discard())
	conn, done := dial(t, h)
	defer done()

	if err := conn.WriteJSON(inboundMsg{Type: "subscribe", MarketID: "poly_B"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	env := readEnvelope(t, conn)
	if env.Type != "subscribed" || env.MarketID != "poly_B" {
		t.Fatalf("subscribe ack = %+v", env)
	}

	if err := conn.WriteJSON(inboundMsg{Type: "unsubscribe", MarketID: "poly_B"}); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	env = readEnvelope(t, conn)
	if env.Type != "unsubscribed" || env.MarketID != "poly_B" {
		t.Fatalf("unsubscribe ack = %+v", env)
	}
	waitFor(t, func() bool { return h.TopicCount() == 0 })
}

func TestSubscribeRequiresMarketID(t *testing.T) {
	h := NewHub(nil, time.Minute, discard())
	conn, done := dial(t, h)
	defer done()

	if err := conn.WriteJSON(inboundMsg{Type: "subscribe"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	env := readEnvelope(t, conn)
	if env.Type != "error" || env.Message != "market_id required" {
		t.Fatalf("got %+v", env)
	}
}

func TestBroadcastReachesSubscriberAndUnsubscribed(t *testing.T) {
	h := NewHub(nil, time.Minute, discard())

	sub, subDone := dial(t, h)
	defer subDone()
	other, otherDone := dial(t, h)
	defer otherDone()

	if err := sub.WriteJSON(inboundMsg{Type: "subscribe", MarketID: "kalshi_A"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if env := readEnvelope(t, sub); env.Type != "subscribed" {
		t.Fatalf("subscribe ack = %+v", env)
	}
	waitFor(t, func() bool { return h.TopicCount() == 1 })

	h.BroadcastMarketUpdate("kalshi_A", map[string]any{"probability": 0.7})

	// Every connected client receives the update regardless of its
	// subscriptions; the subscriber may see it twice.
	env := readEnvelope(t, sub)
	if env.Type != "market_update" || env.MarketID != "kalshi_A" {
		t.Fatalf("subscriber got %+v", env)
	}
	env = readEnvelope(t, other)
	if env.Type != "market_update" || env.MarketID != "kalshi_A" {
		t.Fatalf("non-subscriber got %+v", env)
	}
}

func TestSnapshotLoopPushesStatsAndTrending(t *testing.T) {
	h := NewHub(fakeSnapshots{}, 50*time.Millisecond, discard())
	conn, done := dial(t, h)
	defer done()

	seen := map[string]bool{}
	deadline := time.Now().Add(3 * time.Second)
	for !seen["stats_update"] || !seen["trending_update"] {
		if time.Now().After(deadline) {
			t.Fatalf("snapshots not received, saw %v", seen)
		}
		env := readEnvelope(t, conn)
		seen[env.Type] = true
		if env.Type == "trending_update" {
			items, ok := env.Data.([]any)
			if !ok || len(items) != 1 {
				t.Fatalf("trending payload = %#v", env.Data)
			}
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
