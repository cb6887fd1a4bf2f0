// Package matcher pairs market records from different venues that ask the same
// question.
package matcher

import (
	"sort"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// DefaultThreshold is the minimum similarity for two questions to count as
// the same event.
const DefaultThreshold = 0.85

// Matcher finds cross-venue pairs within each category.
type Matcher struct {
	threshold float64
}

// New creates a Matcher. A threshold outside (0,1] falls back to
// DefaultThreshold.
func New(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the similarity threshold in use.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match pairs records within each category. For every record and every other
// venue it picks the single best candidate scoring at least the threshold,
// breaking ties by ascending (venue_id, market_id). A pair is kept only when
// each record is the other's best candidate, so no record appears in two
// pairs against the same venue. The result is sorted by pairing key.
func (m *Matcher) Match(byCategory map[string][]domain.MarketRecord) []domain.MatchedPair {
	var out []domain.MatchedPair
	seen := make(map[domain.PairingKey]bool)

	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	for _, cat := range cats {
		byVenue := groupByVenue(byCategory[cat])
		venues := make([]string, 0, len(byVenue))
		for v := range byVenue {
			venues = append(venues, v)
		}
		sort.Strings(venues)

		for i := 0; i < len(venues); i++ {
			for j := i + 1; j < len(venues); j++ {
				for _, p := range m.matchVenues(byVenue[venues[i]], byVenue[venues[j]], cat) {
					k := p.Key()
					if seen[k] {
						continue
					}
					seen[k] = true
					out = append(out, p)
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// matchVenues pairs two single-venue record lists by mutual best match. Both
// lists must be sorted by market id.
func (m *Matcher) matchVenues(left, right []domain.MarketRecord, cat string) []domain.MatchedPair {
	scores := make([][]float64, len(left))
	for i, l := range left {
		scores[i] = make([]float64, len(right))
		for j, r := range right {
			scores[i][j] = m.score(l, r)
		}
	}

	bestRight := make([]int, len(left))
	for i := range left {
		bestRight[i] = -1
		for j := range right {
			if better(scores[i][j], bestRight[i], scores[i]) {
				bestRight[i] = j
			}
		}
	}

	bestLeft := make([]int, len(right))
	col := make([]float64, len(left))
	for j := range right {
		for i := range left {
			col[i] = scores[i][j]
		}
		bestLeft[j] = -1
		for i := range left {
			if better(col[i], bestLeft[j], col) {
				bestLeft[j] = i
			}
		}
	}

	var out []domain.MatchedPair
	for i, j := range bestRight {
		if j < 0 || bestLeft[j] != i {
			continue
		}
		out = append(out, domain.NewMatchedPair(left[i], right[j], scores[i][j], cat))
	}
	return out
}

// better reports whether a candidate scoring s beats the current best index.
// Candidates are visited in ascending market order, so a strict comparison
// keeps the lowest-ordered candidate on ties.
func better(s float64, current int, row []float64) bool {
	if s < 0 {
		return false
	}
	return current < 0 || s > row[current]
}

// score returns the similarity of two records, or -1 when they fall below the
// threshold or fail the compatibility guards.
func (m *Matcher) score(a, b domain.MarketRecord) float64 {
	if a.VenueID == b.VenueID {
		return -1
	}
	s := Similarity(a.Question, b.Question)
	if s < m.threshold || !compatible(a.Question, b.Question) {
		return -1
	}
	return s
}

func groupByVenue(records []domain.MarketRecord) map[string][]domain.MarketRecord {
	out := make(map[string][]domain.MarketRecord)
	for _, r := range records {
		out[r.VenueID] = append(out[r.VenueID], r)
	}
	for _, rs := range out {
		sort.Slice(rs, func(i, j int) bool { return rs[i].Less(rs[j]) })
	}
	return out
}
