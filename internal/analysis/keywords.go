package analysis

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	maxKeywords      = 5
	minKeywordLength = 4
)

// ExtractKeywords returns up to 5 keywords from sanitized text, ranked by
// frequency (descending). Ties keep first-occurrence order. Tokens of three
// characters or fewer and stop words are discarded. Pure and deterministic.
func ExtractKeywords(text string) []string {
	counts := make(map[string]int)
	order := make([]string, 0, 16)

	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(tok) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}
