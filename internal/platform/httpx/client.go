// Package httpx is the shared HTTP plumbing of the venue clients: GET with
// retries, exponential backoff and status-to-error mapping.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := string(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// Unwrap maps the status to a domain sentinel error.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return nil
	}
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// RequestEditor mutates a request before it is sent, e.g. to add auth
// headers.
type RequestEditor func(req *http.Request) error

// Header returns a RequestEditor that sets one header.
func Header(key, value string) RequestEditor {
	return func(req *http.Request) error {
		req.Header.Set(key, value)
		return nil
	}
}

// Client performs GET requests with retries.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// Option configures a Client.
type Option func(*Client)

// New creates a Client with 3 retries starting at a 1s backoff.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Get fetches url, retrying 5xx, 429 and transport errors with exponential
// backoff. A 429 waits twice as long. Other 4xx responses fail at once.
func (c *Client) Get(ctx context.Context, url string, editors ...RequestEditor) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff
			var se *StatusError
			if errors.As(lastErr, &se) && se.StatusCode == http.StatusTooManyRequests {
				wait *= 2
			}
			// Jitter: wait * (0.5 to 1.5)
			if wait > 0 {
				wait = wait/2 + time.Duration(rand.Int64N(int64(wait)))
			}
			c.logger.Debug("retrying request",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", wait),
				slog.String("url", url),
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			backoff *= 2
		}

		body, err := c.do(ctx, url, editors)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GetJSON fetches url and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any, editors ...RequestEditor) error {
	body, err := c.Get(ctx, url, editors...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string, editors []RequestEditor) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "predarb/1.0")
	for _, edit := range editors {
		if err := edit(req); err != nil {
			return nil, fmt.Errorf("prepare request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}
