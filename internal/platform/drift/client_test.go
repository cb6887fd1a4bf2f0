package drift

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/predarb/internal/platform/httpx"
)

func TestQuestion(t *testing.T) {
	tests := []struct {
		ticker string
		want   string
	}{
		{"TRUMP-WIN-2024-BET", "Will TRUMP WIN 2024?"},
		{"BTC-100K-2025-BET", "Will BTC 100K 2025?"},
		{"SOLANA-BET", "SOLANA?"},
	}
	for _, tt := range tests {
		if got := Question(tt.ticker); got != tt.want {
			t.Errorf("Question(%q) = %q, want %q", tt.ticker, got, tt.want)
		}
	}
}

func TestFetchMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contracts" {
			t.Errorf("path = %q, want /contracts", r.URL.Path)
		}
		w.Write([]byte(`{"contracts":[
			{"ticker_id":"SOL-PERP","last_price":"145.2","quote_volume":"9000000"},
			{"ticker_id":"BTC-100K-2025-BET","last_price":"0.38","quote_volume":"15000"},
			{"ticker_id":"FED-CUT-BET","last_price":62,"quote_volume":100},
			{"ticker_id":"SETTLED-BET","last_price":"1"}
		]}`))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(srv.URL, httpx.New(httpx.WithRetries(0, time.Millisecond)), logger)

	records, err := c.FetchMarkets(context.Background())
	if err != nil {
		t.Fatalf("FetchMarkets failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	r := records[0]
	if r.MarketID != "BTC-100K-2025-BET" || r.Question != "Will BTC 100K 2025?" {
		t.Errorf("record = %s %q", r.Key(), r.Question)
	}
	if math.Abs(r.YesPrice-0.38) > 1e-9 || math.Abs(r.NoPrice-0.62) > 1e-9 {
		t.Errorf("prices = (%v, %v), want (0.38, 0.62)", r.YesPrice, r.NoPrice)
	}
	if r.Volume24h != 15000 {
		t.Errorf("Volume24h = %v, want 15000", r.Volume24h)
	}

	if math.Abs(records[1].YesPrice-0.62) > 1e-9 {
		t.Errorf("percent price = %v, want 0.62", records[1].YesPrice)
	}
}
