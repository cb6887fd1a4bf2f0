package kalshi

// KalshiMarket is a market as returned by the Kalshi REST API. Prices are in
// cents.
type KalshiMarket struct {
	Ticker      string   `json:"ticker"`
	EventTicker string   `json:"event_ticker"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Status      string   `json:"status"` // "open", "closed", "settled"
	YesBid      float64  `json:"yes_bid"`
	YesAsk      *float64 `json:"yes_ask"`
	NoBid       float64  `json:"no_bid"`
	NoAsk       *float64 `json:"no_ask"`
	LastPrice   float64  `json:"last_price"`
	Volume24H   float64  `json:"volume_24h"`
	Category    string   `json:"category"`
}

// askOrBid returns the ask when the API sent one, otherwise the bid.
func askOrBid(ask *float64, bid float64) float64 {
	if ask != nil {
		return *ask
	}
	return bid
}

// marketsResponse is the envelope of GET /markets.
type marketsResponse struct {
	Markets []KalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}
