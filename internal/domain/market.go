package domain

import (
	"fmt"
	"math"
	"time"
)

// MarketRecord is one venue's normalized pricing for one question, as observed
// during a single polling cycle.
type MarketRecord struct {
	VenueID    string    `json:"venue_id"`
	MarketID   string    `json:"market_id"`
	Question   string    `json:"question"`
	YesPrice   float64   `json:"yes_price"` // probability in [0,1]
	NoPrice    float64   `json:"no_price"`  // probability in [0,1]
	Volume24h  float64   `json:"volume_24h"`
	Category   string    `json:"category,omitempty"` // venue-supplied, may be empty
	ObservedAt time.Time `json:"observed_at"`
}

// Key returns the "venue:market" identifier of the record.
func (r MarketRecord) Key() string {
	return r.VenueID + ":" + r.MarketID
}

// Less orders records by ascending (venue_id, market_id).
func (r MarketRecord) Less(o MarketRecord) bool {
	if r.VenueID != o.VenueID {
		return r.VenueID < o.VenueID
	}
	return r.MarketID < o.MarketID
}

// Validate reports whether the record satisfies the normalized schema.
func (r MarketRecord) Validate() error {
	switch {
	case r.VenueID == "":
		return fmt.Errorf("%w: missing venue id", ErrInvalidRecord)
	case r.MarketID == "":
		return fmt.Errorf("%w: %s: missing market id", ErrInvalidRecord, r.VenueID)
	case r.Question == "":
		return fmt.Errorf("%w: %s: missing question", ErrInvalidRecord, r.Key())
	case !validPrice(r.YesPrice):
		return fmt.Errorf("%w: %s: yes price %v out of range", ErrInvalidRecord, r.Key(), r.YesPrice)
	case !validPrice(r.NoPrice):
		return fmt.Errorf("%w: %s: no price %v out of range", ErrInvalidRecord, r.Key(), r.NoPrice)
	case math.IsNaN(r.Volume24h) || r.Volume24h < 0:
		return fmt.Errorf("%w: %s: negative volume", ErrInvalidRecord, r.Key())
	}
	return nil
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 1
}

// NormalizePrice converts a venue quote to a probability. Quotes above 1 are
// treated as cents.
func NormalizePrice(p float64) float64 {
	if p > 1 {
		return p / 100
	}
	return p
}
