// Package opinion adapts the Opinion Labs open API to normalized market
// records.
package opinion

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/predarb/internal/domain"
	"github.com/alanyoungcy/predarb/internal/platform/httpx"
)

// VenueID identifies Opinion Labs in market records.
const VenueID = "opinion"

// detailConcurrency bounds the per-market detail requests in flight.
const detailConcurrency = 5

// Market is a listing entry. The listing carries no prices.
type Market struct {
	MarketID   httpx.FlexString `json:"marketId"`
	Title      string           `json:"marketTitle"`
	Volume24h  httpx.FlexFloat  `json:"volume24h"`
	MarketType int              `json:"marketType"`
}

// Detail is the per-market payload holding the current prices.
type Detail struct {
	YesPrice *httpx.FlexFloat `json:"yesPrice"`
	NoPrice  *httpx.FlexFloat `json:"noPrice"`
}

type envelope[T any] struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Result T      `json:"result"`
}

type listResult struct {
	List []Market `json:"list"`
}

// Client is the REST client for the Opinion Labs open API. Every request
// carries the API key in the apikey header.
type Client struct {
	baseURL string
	apiKey  string
	limit   int
	http    *httpx.Client
	logger  *slog.Logger
	now     func() time.Time
}

var _ domain.VenueAdapter = (*Client)(nil)

// NewClient creates an Opinion Labs client. baseURL includes the /openapi
// prefix.
func NewClient(baseURL, apiKey string, limit int, httpClient *httpx.Client, logger *slog.Logger) *Client {
	if limit <= 0 {
		limit = 20
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		limit:   limit,
		http:    httpClient,
		logger:  logger.With(slog.String("venue", VenueID)),
		now:     time.Now,
	}
}

// Venue returns the venue identifier.
func (c *Client) Venue() string { return VenueID }

// GetMarkets lists activated binary markets by volume.
func (c *Client) GetMarkets(ctx context.Context) ([]Market, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("marketType", "0")
	params.Set("status", "activated")
	params.Set("sortBy", "3")

	var resp envelope[listResult]
	if err := c.http.GetJSON(ctx, c.baseURL+"/market?"+params.Encode(), &resp, httpx.Header("apikey", c.apiKey)); err != nil {
		return nil, fmt.Errorf("opinion: get markets: %w", err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("opinion: get markets: api code %d: %s", resp.Code, resp.Msg)
	}
	return resp.Result.List, nil
}

// GetDetail returns the price detail for one market.
func (c *Client) GetDetail(ctx context.Context, marketID string) (Detail, error) {
	var resp envelope[Detail]
	if err := c.http.GetJSON(ctx, c.baseURL+"/market/"+url.PathEscape(marketID), &resp, httpx.Header("apikey", c.apiKey)); err != nil {
		return Detail{}, fmt.Errorf("opinion: get market %s: %w", marketID, err)
	}
	if resp.Code != 0 {
		return Detail{}, fmt.Errorf("opinion: get market %s: api code %d: %s", marketID, resp.Code, resp.Msg)
	}
	return resp.Result, nil
}

// FetchMarkets lists markets, then fetches each market's prices concurrently.
// Markets whose detail cannot be fetched or has no prices are skipped.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.MarketRecord, error) {
	markets, err := c.GetMarkets(ctx)
	if err != nil {
		return nil, err
	}

	details := make(map[string]Detail, len(markets))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(detailConcurrency)
	for _, m := range markets {
		id := string(m.MarketID)
		if id == "" || m.Title == "" {
			continue
		}
		g.Go(func() error {
			d, err := c.GetDetail(ctx, id)
			if err != nil {
				c.logger.Debug("market detail failed", slog.String("market_id", id), slog.String("error", err.Error()))
				return nil
			}
			mu.Lock()
			details[id] = d
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := c.now().UTC()
	records := make([]domain.MarketRecord, 0, len(details))
	for _, m := range markets {
		id := string(m.MarketID)
		d, ok := details[id]
		if !ok || d.YesPrice == nil || d.NoPrice == nil {
			continue
		}
		yes, no := scalePrices(float64(*d.YesPrice), float64(*d.NoPrice))
		records = append(records, domain.MarketRecord{
			VenueID:    VenueID,
			MarketID:   id,
			Question:   m.Title,
			YesPrice:   yes,
			NoPrice:    no,
			Volume24h:  float64(m.Volume24h),
			ObservedAt: now,
		})
	}
	return records, nil
}

// scalePrices converts percentage quotes to probabilities when either side
// exceeds 1, then clamps both to [0, 1].
func scalePrices(yes, no float64) (float64, float64) {
	if yes > 1 || no > 1 {
		yes, no = yes/100, no/100
	}
	return clamp(yes), clamp(no)
}

func clamp(p float64) float64 {
	return max(0, min(1, p))
}
