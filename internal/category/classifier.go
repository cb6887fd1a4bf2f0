// Package category assigns market records to configured categories by keyword
// matching. Classification is pure: the keyword table is an explicit value and
// the same input always yields the same output.
package category

import (
	"sort"
	"strings"
	"unicode"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// Entry is one category and the keywords that select it.
type Entry struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Table is an ordered list of categories. When a record matches several
// entries, the earliest one wins.
type Table []Entry

// Names returns the category names in table order.
func (t Table) Names() []string {
	out := make([]string, 0, len(t))
	for _, e := range t {
		out = append(out, e.Name)
	}
	return out
}

// Has reports whether the table defines a category with the given name.
func (t Table) Has(name string) bool {
	for _, e := range t {
		if strings.EqualFold(e.Name, name) {
			return true
		}
	}
	return false
}

// Classifier maps records to categories using a keyword table.
type Classifier struct {
	entries []compiledEntry
}

type compiledEntry struct {
	name     string
	keywords []string // normalized, each padded with spaces
	tags     map[string]bool
}

// New compiles a Table into a Classifier. Keywords are matched on word
// boundaries, case-insensitively.
func New(table Table) *Classifier {
	c := &Classifier{entries: make([]compiledEntry, 0, len(table))}
	for _, e := range table {
		ce := compiledEntry{
			name: strings.ToLower(strings.TrimSpace(e.Name)),
			tags: make(map[string]bool, len(e.Keywords)+1),
		}
		ce.tags[ce.name] = true
		for _, kw := range e.Keywords {
			n := normalize(kw)
			if n == "" {
				continue
			}
			ce.keywords = append(ce.keywords, " "+n+" ")
			ce.tags[n] = true
		}
		c.entries = append(c.entries, ce)
	}
	return c
}

// Classify returns the category of r, or "" when nothing matches. A
// venue-supplied category equal to a category name or keyword also matches.
func (c *Classifier) Classify(r domain.MarketRecord) string {
	q := " " + normalize(r.Question) + " "
	tag := normalize(r.Category)

	for _, e := range c.entries {
		if tag != "" && e.tags[tag] {
			return e.name
		}
		for _, kw := range e.keywords {
			if strings.Contains(q, kw) {
				return e.name
			}
		}
	}
	return ""
}

// Partition groups records by category, keeping only the allowed ones.
// Records in each bucket are sorted by (venue_id, market_id).
func (c *Classifier) Partition(records []domain.MarketRecord, allowed []string) map[string][]domain.MarketRecord {
	allow := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allow[strings.ToLower(strings.TrimSpace(a))] = true
	}

	out := make(map[string][]domain.MarketRecord)
	for _, r := range records {
		cat := c.Classify(r)
		if cat == "" || !allow[cat] {
			continue
		}
		out[cat] = append(out[cat], r)
	}
	for _, bucket := range out {
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].Less(bucket[j]) })
	}
	return out
}

// normalize lowercases s, replaces punctuation with spaces and collapses runs
// of whitespace.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}
