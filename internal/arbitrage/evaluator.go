// Package arbitrage prices matched pairs as two-leg hedges and keeps the ones
// that pay out more than they cost.
package arbitrage

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/predarb/internal/domain"
)

const (
	// DefaultThresholdPct is the minimum profit, in percent, worth reporting.
	DefaultThresholdPct = 0.1
)

// DefaultRatingBands give five ratings: <=0.5%, <=1%, <=2%, <=5%, above.
var DefaultRatingBands = []float64{0.5, 1, 2, 5}

// Config controls what the Evaluator emits.
type Config struct {
	ThresholdPct float64
	// RatingBands are ascending profit percentages. The rating is one plus
	// the number of bands the profit strictly exceeds.
	RatingBands []float64
}

// Evaluator computes the cheaper side-assignment of each pair.
type Evaluator struct {
	cfg   Config
	now   func() time.Time
	newID func() string
}

// New creates an Evaluator. Nil rating bands select DefaultRatingBands.
func New(cfg Config) *Evaluator {
	if cfg.RatingBands == nil {
		cfg.RatingBands = DefaultRatingBands
	}
	bands := append([]float64(nil), cfg.RatingBands...)
	sort.Float64s(bands)
	cfg.RatingBands = bands

	return &Evaluator{
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

// Evaluate returns the opportunities among pairs, most profitable first.
func (e *Evaluator) Evaluate(pairs []domain.MatchedPair) []domain.ArbitrageOpportunity {
	now := e.now()
	var out []domain.ArbitrageOpportunity
	for _, p := range pairs {
		opp, ok := e.evaluatePair(p)
		if !ok {
			continue
		}
		opp.ID = e.newID()
		opp.DetectedAt = now
		out = append(out, opp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProfitPct != out[j].ProfitPct {
			return out[i].ProfitPct > out[j].ProfitPct
		}
		return out[i].Pair.Key() < out[j].Pair.Key()
	})
	return out
}

// evaluatePair picks the cheaper assignment and applies the profit rules.
// On equal cost the "yes" leg goes to A, the lower-ordered record.
func (e *Evaluator) evaluatePair(p domain.MatchedPair) (domain.ArbitrageOpportunity, bool) {
	costA, okA := cost(p, domain.YesOnA)
	costB, okB := cost(p, domain.YesOnB)

	var side domain.SideAssignment
	switch {
	case okA && (!okB || costA <= costB):
		side = domain.YesOnA
	case okB:
		side = domain.YesOnB
	default:
		return domain.ArbitrageOpportunity{}, false
	}

	yes, no := side.Legs(p)
	total := yes.YesPrice + no.NoPrice
	if total >= 1 {
		return domain.ArbitrageOpportunity{}, false
	}
	profit := ProfitPct(total)
	if profit < e.cfg.ThresholdPct {
		return domain.ArbitrageOpportunity{}, false
	}

	return domain.ArbitrageOpportunity{
		Pair:         p,
		Side:         side,
		BuyYesOn:     yes,
		BuyNoOn:      no,
		YesPrice:     yes.YesPrice,
		NoPrice:      no.NoPrice,
		TotalCost:    total,
		ProfitPct:    profit,
		Rating:       Rate(profit, e.cfg.RatingBands),
		YesVolume24h: yes.Volume24h,
		NoVolume24h:  no.Volume24h,
	}, true
}

// cost returns the combined price of an assignment. A zero price means the
// venue quotes no offer on that side, so the assignment is not tradable.
// When only one assignment is tradable it is kept even if the untradable one
// would sum lower.
func cost(p domain.MatchedPair, side domain.SideAssignment) (float64, bool) {
	yes, no := side.Legs(p)
	if yes.YesPrice <= 0 || no.NoPrice <= 0 {
		return 0, false
	}
	return yes.YesPrice + no.NoPrice, true
}

// profitScale sets the resolution of reported profits to 1e-6 percent.
// Rounding absorbs float error so that decimal prices such as 0.40 + 0.40
// yield exactly 20.
const profitScale = 1e6

// ProfitPct converts a hedge cost to a profit percentage of the $1 payout,
// rounded to 1e-6 percent.
func ProfitPct(totalCost float64) float64 {
	return math.Round((1-totalCost)*100*profitScale) / profitScale
}

// Rate returns 1 plus the number of ascending bands that profit exceeds.
func Rate(profit float64, bands []float64) int {
	r := 1
	for _, b := range bands {
		if profit > b {
			r++
		}
	}
	return r
}
