// Package polymarket adapts the Polymarket Gamma API to normalized market
// records.
package polymarket

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

// VenueID identifies Polymarket in market records.
const VenueID = "polymarket"

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and current outcome prices.
type GammaClient struct {
	baseURL string
	limit   int
	http    *httpx.Client
	logger  *slog.Logger
	now     func() time.Time
}

var _ domain.VenueAdapter = (*GammaClient)(nil)

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
// limit is the number of markets requested per cycle, highest volume first.
func NewGammaClient(baseURL string, limit int, httpClient *httpx.Client, logger *slog.Logger) *GammaClient {
	if limit <= 0 {
		limit = 50
	}
	return &GammaClient{
		baseURL: baseURL,
		limit:   limit,
		http:    httpClient,
		logger:  logger.With(slog.String("venue", VenueID)),
		now:     time.Now,
	}
}

// Venue returns the venue identifier.
func (g *GammaClient) Venue() string { return VenueID }

// GetMarkets returns open markets ordered by 24h volume.
func (g *GammaClient) GetMarkets(ctx context.Context) ([]APIMarket, error) {
	params := url.Values{}
	params.Set("closed", "false")
	params.Set("limit", strconv.Itoa(g.limit))
	params.Set("order", "volume24hr")
	params.Set("ascending", "false")

	var markets []APIMarket
	if err := g.http.GetJSON(ctx, g.baseURL+"/markets?"+params.Encode(), &markets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}
	return markets, nil
}

// FetchMarkets returns the binary Yes/No markets as normalized records.
func (g *GammaClient) FetchMarkets(ctx context.Context) ([]domain.MarketRecord, error) {
	markets, err := g.GetMarkets(ctx)
	if err != nil {
		return nil, err
	}

	now := g.now().UTC()
	records := make([]domain.MarketRecord, 0, len(markets))
	for i := range markets {
		m := &markets[i]
		if m.Closed || m.Question == "" {
			continue
		}
		yes, no, ok := m.yesNoPrices()
		if !ok {
			g.logger.Debug("skipping non-binary market", slog.String("market_id", m.ID))
			continue
		}
		records = append(records, domain.MarketRecord{
			VenueID:    VenueID,
			MarketID:   m.ID,
			Question:   m.Question,
			YesPrice:   yes,
			NoPrice:    no,
			Volume24h:  float64(m.Volume24hr),
			Category:   m.Category,
			ObservedAt: now,
		})
	}
	return records, nil
}
