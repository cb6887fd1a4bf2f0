package domain

import "time"

// PairingKey identifies an unordered pair of records on two venues. Its string
// form sorts both "venue:market" parts, so key(a,b) == key(b,a).
type PairingKey string

// NewPairingKey builds the unordered key for two records.
func NewPairingKey(a, b MarketRecord) PairingKey {
	ka, kb := a.Key(), b.Key()
	if b.Less(a) {
		ka, kb = kb, ka
	}
	return PairingKey(ka + "|" + kb)
}

// MatchedPair is two records from different venues judged to ask the same
// question. A always orders before B by (venue_id, market_id).
type MatchedPair struct {
	A          MarketRecord `json:"a"`
	B          MarketRecord `json:"b"`
	Similarity float64      `json:"similarity"`
	Category   string       `json:"category"`
}

// NewMatchedPair orders the two records so that A < B.
func NewMatchedPair(x, y MarketRecord, similarity float64, category string) MatchedPair {
	if y.Less(x) {
		x, y = y, x
	}
	return MatchedPair{A: x, B: y, Similarity: similarity, Category: category}
}

// Key returns the pair's unordered pairing key.
func (p MatchedPair) Key() PairingKey {
	return NewPairingKey(p.A, p.B)
}

// SideAssignment says which record of a pair supplies the "yes" leg.
type SideAssignment int

const (
	YesOnA SideAssignment = iota // yes on A, no on B
	YesOnB                       // no on A, yes on B
)

func (s SideAssignment) String() string {
	if s == YesOnB {
		return "yes_on_b"
	}
	return "yes_on_a"
}

// Legs returns the (yes, no) records of p under this assignment.
func (s SideAssignment) Legs(p MatchedPair) (yes, no MarketRecord) {
	if s == YesOnB {
		return p.B, p.A
	}
	return p.A, p.B
}

// ArbitrageOpportunity is a hedge whose two opposing legs cost less than the
// guaranteed $1 payout.
type ArbitrageOpportunity struct {
	ID           string         `json:"id"`
	Pair         MatchedPair    `json:"pair"`
	Side         SideAssignment `json:"side"`
	BuyYesOn     MarketRecord   `json:"buy_yes_on"`
	BuyNoOn      MarketRecord   `json:"buy_no_on"`
	YesPrice     float64        `json:"yes_price"`
	NoPrice      float64        `json:"no_price"`
	TotalCost    float64        `json:"total_cost"`
	ProfitPct    float64        `json:"profit_pct"`
	Rating       int            `json:"rating"`
	YesVolume24h float64        `json:"yes_volume_24h"`
	NoVolume24h  float64        `json:"no_volume_24h"`
	DetectedAt   time.Time      `json:"detected_at"`
}

// DedupKey identifies the (pairing key, side assignment) combination. The
// legs are named explicitly so a flipped side never collides with the old
// one.
func (o ArbitrageOpportunity) DedupKey() string {
	return string(o.Pair.Key()) + "#yes=" + o.BuyYesOn.Key() + ",no=" + o.BuyNoOn.Key()
}
