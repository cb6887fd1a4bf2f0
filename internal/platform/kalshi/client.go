// Package kalshi adapts the Kalshi exchange API to normalized market records.
package kalshi

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/predarb/internal/domain"
	"github.com/alanyoungcy/predarb/internal/platform/httpx"
)

// VenueID identifies Kalshi in market records.
const VenueID = "kalshi"

// Client is the REST client for the Kalshi exchange API.
type Client struct {
	baseURL    string
	apiKeyID   string
	limit      int
	privateKey *rsa.PrivateKey
	http       *httpx.Client
	logger     *slog.Logger
	now        func() time.Time
}

var _ domain.VenueAdapter = (*Client)(nil)

// NewClient creates a new Kalshi REST client.
//
// baseURL is the API root, e.g. "https://api.elections.kalshi.com/trade-api/v2".
// apiKeyID is the Kalshi API key identifier; the market listing is public, so
// it may be empty.
func NewClient(baseURL, apiKeyID string, limit int, httpClient *httpx.Client, logger *slog.Logger) *Client {
	if limit <= 0 {
		limit = 100
	}
	return &Client{
		baseURL:  baseURL,
		apiKeyID: apiKeyID,
		limit:    limit,
		http:     httpClient,
		logger:   logger.With(slog.String("venue", VenueID)),
		now:      time.Now,
	}
}

// SetRSAPrivateKey loads an RSA private key from PEM-encoded bytes and
// configures the client for RSA-signed authentication.
func (c *Client) SetRSAPrivateKey(pemBytes []byte) error {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return fmt.Errorf("kalshi: no PEM block found in private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS1 as fallback.
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return fmt.Errorf("kalshi: parse private key: %w (pkcs1: %v)", err, pkcs1Err)
		}
		c.privateKey = pkcs1Key
		return nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("kalshi: expected RSA private key, got %T", key)
	}
	c.privateKey = rsaKey
	return nil
}

// Venue returns the venue identifier.
func (c *Client) Venue() string { return VenueID }

// GetMarkets returns one page of open markets.
func (c *Client) GetMarkets(ctx context.Context) ([]KalshiMarket, error) {
	params := url.Values{}
	params.Set("status", "open")
	params.Set("limit", strconv.Itoa(c.limit))

	var resp marketsResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/markets?"+params.Encode(), &resp, c.signRequest); err != nil {
		return nil, fmt.Errorf("kalshi: get markets: %w", err)
	}
	return resp.Markets, nil
}

// FetchMarkets returns open markets as normalized records. Asks are used when
// quoted, falling back to bids.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.MarketRecord, error) {
	markets, err := c.GetMarkets(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	records := make([]domain.MarketRecord, 0, len(markets))
	for _, m := range markets {
		if m.Title == "" {
			continue
		}
		records = append(records, domain.MarketRecord{
			VenueID:    VenueID,
			MarketID:   m.Ticker,
			Question:   m.Title,
			YesPrice:   askOrBid(m.YesAsk, m.YesBid) / 100,
			NoPrice:    askOrBid(m.NoAsk, m.NoBid) / 100,
			Volume24h:  m.Volume24H,
			Category:   m.Category,
			ObservedAt: now,
		})
	}
	return records, nil
}

// signRequest adds RSA authentication headers when a key is configured.
// Kalshi uses RSA-PSS-SHA256 signatures over the timestamp + method + path
// message string.
func (c *Client) signRequest(req *http.Request) error {
	if c.privateKey == nil {
		return nil
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	message := ts + req.Method + req.URL.Path

	hash := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("RSA sign: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", base64.StdEncoding.EncodeToString(signature))
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)
	return nil
}
