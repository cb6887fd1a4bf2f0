// Package limitless adapts the Limitless exchange API to normalized market
// records.
package limitless

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/predarb/internal/domain"
	"github.com/alanyoungcy/predarb/internal/platform/httpx"
)

// VenueID identifies Limitless in market records.
const VenueID = "limitless"

// maxLimit is the largest page size the /markets/active endpoint accepts.
const maxLimit = 25

// microUSDC is the threshold above which volumes are reported in 6-decimal
// base units instead of dollars.
const microUSDC = 1_000_000

// Market is a market as returned by /markets/active.
type Market struct {
	ID     httpx.FlexString  `json:"id"`
	Slug   string            `json:"slug"`
	Title  string            `json:"title"`
	Prices []httpx.FlexFloat `json:"prices"`
	Volume httpx.FlexFloat   `json:"volume"`
}

type activeResponse struct {
	Data []Market `json:"data"`
}

// Client is the REST client for the Limitless API.
type Client struct {
	baseURL string
	limit   int
	http    *httpx.Client
	logger  *slog.Logger
	now     func() time.Time
}

var _ domain.VenueAdapter = (*Client)(nil)

// NewClient creates a Limitless client. limit is capped at the API maximum.
func NewClient(baseURL string, limit int, httpClient *httpx.Client, logger *slog.Logger) *Client {
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	return &Client{
		baseURL: baseURL,
		limit:   limit,
		http:    httpClient,
		logger:  logger.With(slog.String("venue", VenueID)),
		now:     time.Now,
	}
}

// Venue returns the venue identifier.
func (c *Client) Venue() string { return VenueID }

// GetMarkets returns the first page of active markets by value.
func (c *Client) GetMarkets(ctx context.Context) ([]Market, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("sortBy", "high_value")

	var resp activeResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/markets/active?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("limitless: get markets: %w", err)
	}
	return resp.Data, nil
}

// FetchMarkets returns active markets as normalized records. Markets without
// a two-element price array are skipped.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.MarketRecord, error) {
	markets, err := c.GetMarkets(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	records := make([]domain.MarketRecord, 0, len(markets))
	for _, m := range markets {
		if m.Title == "" || len(m.Prices) < 2 {
			continue
		}
		id := m.Slug
		if id == "" {
			id = string(m.ID)
		}
		if id == "" {
			c.logger.Debug("skipping market without id", slog.String("title", m.Title))
			continue
		}

		volume := float64(m.Volume)
		if volume > microUSDC {
			volume /= 1e6
		}
		records = append(records, domain.MarketRecord{
			VenueID:    VenueID,
			MarketID:   id,
			Question:   m.Title,
			YesPrice:   domain.NormalizePrice(float64(m.Prices[0])),
			NoPrice:    domain.NormalizePrice(float64(m.Prices[1])),
			Volume24h:  volume,
			ObservedAt: now,
		})
	}
	return records, nil
}
