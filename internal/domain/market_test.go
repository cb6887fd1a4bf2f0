package domain

import (
	"errors"
	"math"
	"testing"
)

func TestMarketRecordValidate(t *testing.T) {
	valid := MarketRecord{VenueID: "kalshi", MarketID: "KX-1", Question: "Q?", YesPrice: 0.4, NoPrice: 0.6}

	tests := []struct {
		name    string
		mutate  func(r *MarketRecord)
		wantErr bool
	}{
		{"valid", func(r *MarketRecord) {}, false},
		{"boundary prices", func(r *MarketRecord) { r.YesPrice, r.NoPrice = 0, 1 }, false},
		{"missing venue", func(r *MarketRecord) { r.VenueID = "" }, true},
		{"missing market", func(r *MarketRecord) { r.MarketID = "" }, true},
		{"missing question", func(r *MarketRecord) { r.Question = "" }, true},
		{"yes above one", func(r *MarketRecord) { r.YesPrice = 1.2 }, true},
		{"negative no", func(r *MarketRecord) { r.NoPrice = -0.1 }, true},
		{"nan price", func(r *MarketRecord) { r.YesPrice = math.NaN() }, true},
		{"negative volume", func(r *MarketRecord) { r.Volume24h = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("Validate() error = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.42, 0.42},
		{1, 1},
		{42, 0.42},
		{0, 0},
	}
	for _, tt := range tests {
		if got := NormalizePrice(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizePrice(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPairingKeyIsUnordered(t *testing.T) {
	a := MarketRecord{VenueID: "polymarket", MarketID: "123"}
	b := MarketRecord{VenueID: "kalshi", MarketID: "KX"}

	if NewPairingKey(a, b) != NewPairingKey(b, a) {
		t.Errorf("NewPairingKey not symmetric: %q vs %q", NewPairingKey(a, b), NewPairingKey(b, a))
	}
	if got, want := NewPairingKey(a, b), PairingKey("kalshi:KX|polymarket:123"); got != want {
		t.Errorf("NewPairingKey = %q, want %q", got, want)
	}
}

func TestNewMatchedPairOrdersRecords(t *testing.T) {
	a := MarketRecord{VenueID: "polymarket", MarketID: "1"}
	b := MarketRecord{VenueID: "kalshi", MarketID: "2"}

	p := NewMatchedPair(a, b, 0.9, "sports")
	if p.A.VenueID != "kalshi" || p.B.VenueID != "polymarket" {
		t.Errorf("NewMatchedPair order = (%s, %s), want (kalshi, polymarket)", p.A.VenueID, p.B.VenueID)
	}
}

func TestDedupKeyDistinguishesSides(t *testing.T) {
	a := MarketRecord{VenueID: "a", MarketID: "1"}
	b := MarketRecord{VenueID: "b", MarketID: "1"}
	p := NewMatchedPair(a, b, 1, "crypto")

	yesA := ArbitrageOpportunity{Pair: p, Side: YesOnA, BuyYesOn: a, BuyNoOn: b}
	yesB := ArbitrageOpportunity{Pair: p, Side: YesOnB, BuyYesOn: b, BuyNoOn: a}

	if yesA.DedupKey() == yesB.DedupKey() {
		t.Errorf("DedupKey() equal for flipped sides: %q", yesA.DedupKey())
	}
}

func TestDisabledVenueIsAdapterDisabled(t *testing.T) {
	var err error = DisabledVenue{ID: "myriad", Reason: "no public api"}
	if !errors.Is(err, ErrAdapterDisabled) {
		t.Errorf("errors.Is(%v, ErrAdapterDisabled) = false, want true", err)
	}
}
