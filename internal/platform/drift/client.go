// Package drift adapts the Drift BET prediction markets, served from the Drift
// data API, to normalized market records.
package drift

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/predarb/internal/domain"
	"github.com/alanyoungcy/predarb/internal/platform/httpx"
)

// VenueID identifies Drift BET in market records.
const VenueID = "drift"

const betSuffix = "-BET"

// Contract is one entry of the /contracts listing. Perpetuals and prediction
// markets share the listing; prediction markets carry the -BET suffix.
type Contract struct {
	TickerID     string          `json:"ticker_id"`
	LastPrice    httpx.FlexFloat `json:"last_price"`
	QuoteVolume  httpx.FlexFloat `json:"quote_volume"`
	OpenInterest httpx.FlexFloat `json:"open_interest"`
}

type contractsResponse struct {
	Contracts []Contract `json:"contracts"`
}

// Client reads prediction markets from the Drift data API.
type Client struct {
	baseURL string
	http    *httpx.Client
	logger  *slog.Logger
	now     func() time.Time
}

var _ domain.VenueAdapter = (*Client)(nil)

// NewClient creates a Drift data API client.
func NewClient(baseURL string, httpClient *httpx.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger.With(slog.String("venue", VenueID)),
		now:     time.Now,
	}
}

// Venue returns the venue identifier.
func (c *Client) Venue() string { return VenueID }

// GetContracts returns every listed contract.
func (c *Client) GetContracts(ctx context.Context) ([]Contract, error) {
	var resp contractsResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/contracts", &resp); err != nil {
		return nil, fmt.Errorf("drift: get contracts: %w", err)
	}
	return resp.Contracts, nil
}

// FetchMarkets returns the BET contracts as records. The last traded price is
// the Yes price and the No price is its complement.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.MarketRecord, error) {
	contracts, err := c.GetContracts(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	var records []domain.MarketRecord
	for _, ct := range contracts {
		if !strings.HasSuffix(ct.TickerID, betSuffix) {
			continue
		}
		yes := domain.NormalizePrice(float64(ct.LastPrice))
		if yes <= 0 || yes >= 1 {
			c.logger.Debug("skipping contract with unusable price",
				slog.String("ticker", ct.TickerID),
				slog.Float64("last_price", float64(ct.LastPrice)),
			)
			continue
		}
		records = append(records, domain.MarketRecord{
			VenueID:    VenueID,
			MarketID:   ct.TickerID,
			Question:   Question(ct.TickerID),
			YesPrice:   yes,
			NoPrice:    1 - yes,
			Volume24h:  float64(ct.QuoteVolume),
			ObservedAt: now,
		})
	}
	return records, nil
}

// Question turns a ticker such as "TRUMP-WIN-2024-BET" into
// "Will TRUMP WIN 2024?" so it can be matched against other venues.
func Question(ticker string) string {
	name := strings.TrimSuffix(ticker, betSuffix)
	parts := strings.Split(name, "-")
	if len(parts) < 2 {
		return name + "?"
	}
	return "Will " + parts[0] + " " + strings.Join(parts[1:], " ") + "?"
}
