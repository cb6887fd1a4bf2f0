package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/predarb/internal/domain"
	"github.com/alanyoungcy/predarb/internal/pipeline"
)

func startHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		cancel()
		srv.Close()
	})

	if got := readEnvelope(t, conn); got.Type != "hello" {
		t.Fatalf("first frame type = %q, want hello", got.Type)
	}
	return hub, conn
}

type rawEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) rawEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env rawEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return env
}

func TestHubBroadcastsOpportunity(t *testing.T) {
	hub, conn := startHub(t)

	opp := domain.ArbitrageOpportunity{ID: "opp-1", ProfitPct: 20}
	if err := hub.SendOpportunity(context.Background(), opp); err != nil {
		t.Fatalf("SendOpportunity failed: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Type != "opportunity" {
		t.Fatalf("type = %q, want opportunity", env.Type)
	}
	var got domain.ArbitrageOpportunity
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.ID != "opp-1" || got.ProfitPct != 20 {
		t.Errorf("payload = %+v", got)
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub, conn := startHub(t)

	if err := conn.WriteJSON(subscribeMsg{Action: "unsubscribe", Channels: []string{ChannelCycles}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	// The read pump applies the change asynchronously.
	time.Sleep(100 * time.Millisecond)

	hub.ObserveCycle(pipeline.CycleReport{Records: 3}, nil)
	hub.Send(context.Background(), "after", "cycle")

	if env := readEnvelope(t, conn); env.Type != "notice" {
		t.Errorf("type = %q, want notice (cycles unsubscribed)", env.Type)
	}
}

type chanBus struct {
	ch chan []byte
}

func (b *chanBus) Publish(context.Context, string, []byte) error { return nil }

func (b *chanBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.ch, nil
}

func TestHubRelay(t *testing.T) {
	hub, conn := startHub(t)

	bus := &chanBus{ch: make(chan []byte, 1)}
	bus.ch <- []byte(`{"id":"remote"}`)
	close(bus.ch)

	if err := hub.Relay(context.Background(), bus, "opportunities"); err != nil {
		t.Fatalf("Relay failed: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Type != "opportunity" || string(env.Payload) != `{"id":"remote"}` {
		t.Errorf("frame = %s %s", env.Type, env.Payload)
	}
}

func TestIsSubscribedPrefix(t *testing.T) {
	c := &client{subs: map[string]bool{"opp*": true}}
	if !c.isSubscribed(ChannelOpportunities) {
		t.Error("prefix subscription did not match")
	}
	if c.isSubscribed(ChannelCycles) {
		t.Error("prefix subscription matched unrelated channel")
	}
}
