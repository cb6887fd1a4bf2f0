package opinion

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/predarb/internal/platform/httpx"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/market":
			q := r.URL.Query()
			if q.Get("status") != "activated" || q.Get("marketType") != "0" || q.Get("sortBy") != "3" {
				t.Errorf("query = %q", r.URL.RawQuery)
			}
			w.Write([]byte(`{"code":0,"msg":"ok","result":{"list":[
				{"marketId":101,"marketTitle":"Will the Fed cut rates in 2025?","volume24h":"8000"},
				{"marketId":102,"marketTitle":"Will ETH flip BTC?","volume24h":10},
				{"marketId":103,"marketTitle":"Detail fails","volume24h":0},
				{"marketId":104,"marketTitle":"No prices","volume24h":0}
			]}}`))
		case r.URL.Path == "/market/101":
			w.Write([]byte(`{"code":0,"result":{"yesPrice":"0.44","noPrice":"0.58"}}`))
		case r.URL.Path == "/market/102":
			w.Write([]byte(`{"code":0,"result":{"yesPrice":12,"noPrice":90}}`))
		case r.URL.Path == "/market/103":
			w.WriteHeader(http.StatusNotFound)
		case strings.HasPrefix(r.URL.Path, "/market/"):
			w.Write([]byte(`{"code":0,"result":{}}`))
		}
	}))
}

func newTestClient(url, key string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(url, key, 20, httpx.New(httpx.WithRetries(0, time.Millisecond)), logger)
}

func TestFetchMarkets(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	records, err := newTestClient(srv.URL, "secret").FetchMarkets(context.Background())
	if err != nil {
		t.Fatalf("FetchMarkets failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	r := records[0]
	if r.Key() != "opinion:101" {
		t.Errorf("Key() = %q, want opinion:101", r.Key())
	}
	if math.Abs(r.YesPrice-0.44) > 1e-9 || math.Abs(r.NoPrice-0.58) > 1e-9 {
		t.Errorf("prices = (%v, %v), want (0.44, 0.58)", r.YesPrice, r.NoPrice)
	}
	if r.Volume24h != 8000 {
		t.Errorf("Volume24h = %v, want 8000", r.Volume24h)
	}

	if math.Abs(records[1].YesPrice-0.12) > 1e-9 || math.Abs(records[1].NoPrice-0.90) > 1e-9 {
		t.Errorf("percent prices = (%v, %v), want (0.12, 0.90)", records[1].YesPrice, records[1].NoPrice)
	}
}

func TestFetchMarketsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":401,"msg":"invalid api key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "bad").FetchMarkets(context.Background())
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("error = %v, want api code error", err)
	}
}

func TestScalePrices(t *testing.T) {
	tests := []struct {
		yes, no         float64
		wantYes, wantNo float64
	}{
		{0.4, 0.6, 0.4, 0.6},
		{40, 60, 0.4, 0.6},
		{0.5, 120, 0.005, 1},
		{-0.1, 0.5, 0, 0.5},
	}
	for _, tt := range tests {
		y, n := scalePrices(tt.yes, tt.no)
		if math.Abs(y-tt.wantYes) > 1e-9 || math.Abs(n-tt.wantNo) > 1e-9 {
			t.Errorf("scalePrices(%v, %v) = (%v, %v), want (%v, %v)", tt.yes, tt.no, y, n, tt.wantYes, tt.wantNo)
		}
	}
}
