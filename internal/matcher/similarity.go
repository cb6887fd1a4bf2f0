package matcher

import (
	"regexp"
	"strings"
	"unicode"
)

// Similarity returns a score in [0,1] comparing two questions: one minus the
// Levenshtein distance of their normalized forms divided by the longer length.
// It is symmetric and Similarity(a, a) == 1.
func Similarity(a, b string) float64 {
	ra := []rune(Normalize(a))
	rb := []rune(Normalize(b))

	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// Normalize lowercases s, turns punctuation into spaces and collapses
// whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

var (
	yearPattern  = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	pricePattern = regexp.MustCompile(`\$\s?[\d,]+(?:\.\d+)?\s?[kKmMbB]?\b`)
)

// compatible rejects pairs whose questions name different years or different
// price targets. Questions that mention neither are always compatible.
func compatible(a, b string) bool {
	return sameSet(extract(yearPattern, a), extract(yearPattern, b)) &&
		sameSet(extract(pricePattern, a), extract(pricePattern, b))
}

func extract(re *regexp.Regexp, s string) map[string]bool {
	found := re.FindAllString(s, -1)
	if len(found) == 0 {
		return nil
	}
	out := make(map[string]bool, len(found))
	for _, f := range found {
		f = strings.ToLower(strings.NewReplacer(",", "", " ", "", "$", "").Replace(f))
		out[f] = true
	}
	return out
}

// sameSet is true when either side is empty or both hold the same elements.
func sameSet(a, b map[string]bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
