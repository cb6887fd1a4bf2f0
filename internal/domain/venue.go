package domain

import "context"

// VenueAdapter fetches the current normalized market records of one venue.
type VenueAdapter interface {
	Venue() string
	FetchMarkets(ctx context.Context) ([]MarketRecord, error)
}

// DisabledVenue is a venue that configuration marked as unavailable, such as
// one with no API key or no public interface. It is never attempted.
type DisabledVenue struct {
	ID     string `json:"venue_id"`
	Reason string `json:"reason"`
}

// Error makes a DisabledVenue usable with errors.Is(err, ErrAdapterDisabled).
func (d DisabledVenue) Error() string {
	return d.ID + ": disabled: " + d.Reason
}

func (d DisabledVenue) Unwrap() error { return ErrAdapterDisabled }

// VenueSet is the outcome of building adapters from configuration.
type VenueSet struct {
	Adapters []VenueAdapter
	Disabled []DisabledVenue
}

// Usable reports whether at least one adapter can be attempted.
func (s VenueSet) Usable() bool {
	return len(s.Adapters) > 0
}
