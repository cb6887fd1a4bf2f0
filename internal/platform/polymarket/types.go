package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/alanyoungcy/predarb/internal/platform/httpx"
)

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket is a market as returned by the Gamma /markets endpoint.
type APIMarket struct {
	ID            string          `json:"id"`
	Question      string          `json:"question"`
	Slug          string          `json:"slug"`
	Closed        bool            `json:"closed"`
	Outcomes      string          `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string          `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
	Volume24hr    httpx.FlexFloat `json:"volume24hr"`
	Category      string          `json:"category"`
}

// yesNoPrices decodes the outcome arrays and returns the Yes and No prices.
// ok is false for markets that are not binary Yes/No.
func (m *APIMarket) yesNoPrices() (yes, no float64, ok bool) {
	var outcomes, prices []string
	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err != nil {
		return 0, 0, false
	}
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err != nil {
		return 0, 0, false
	}

	yesIdx, noIdx := -1, -1
	for i, o := range outcomes {
		switch strings.ToLower(strings.TrimSpace(o)) {
		case "yes":
			yesIdx = i
		case "no":
			noIdx = i
		}
	}
	if yesIdx < 0 || noIdx < 0 || yesIdx >= len(prices) || noIdx >= len(prices) {
		return 0, 0, false
	}

	yes, err := strconv.ParseFloat(prices[yesIdx], 64)
	if err != nil {
		return 0, 0, false
	}
	no, err = strconv.ParseFloat(prices[noIdx], 64)
	if err != nil {
		return 0, 0, false
	}
	return yes, no, true
}
