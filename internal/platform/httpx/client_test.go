package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alanyoungcy/predarb/internal/domain"
)

func newTestClient() *Client {
	return New(WithRetries(3, time.Millisecond))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	if err := newTestClient().GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if !out.OK {
		t.Error("OK = false, want true")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGetRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := newTestClient().Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
	}
	for _, tt := range tests {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(tt.status)
		}))

		_, err := newTestClient().Get(context.Background(), srv.URL)
		srv.Close()

		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: error = %v, want %v", tt.status, err, tt.want)
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("status %d: calls = %d, want 1", tt.status, got)
		}
	}
}

func TestGetMaxRetriesExceeded(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), srv.URL)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("error = %v, want ErrRateLimited", err)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("calls = %d, want 4", got)
	}
}

func TestGetAppliesEditors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := newTestClient().Get(context.Background(), srv.URL, Header("apikey", "secret")); err != nil {
		t.Errorf("Get failed: %v", err)
	}
}

func TestGetStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(WithRetries(3, time.Hour))
	if _, err := c.Get(ctx, srv.URL); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
