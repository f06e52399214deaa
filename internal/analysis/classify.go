package analysis

import (
	"strings"

	"pulsebridge/internal/domain"
)

const (
	// negationWindow is how many preceding tokens are scanned for a negator
	// before crediting a polarity hit.
	negationWindow = 3
	// intensifierWindow is how many preceding tokens can carry an
	// intensifier; a hit doubles the word's weight.
	intensifierWindow     = 2
	intensifierMultiplier = 2
)

// Composite escalation labels derived from category hits plus score thresholds.
const (
	labelWellbeingConcern  = "wellbeing_concern"
	labelRetentionFlag     = "retention_flag"
	labelTeamDynamicsIssue = "team_dynamics_issue"
)

// Classify scores text against the weighted category lexicons and derives a
// primary polarity plus a deduplicated set of risk labels.
//
// Polarity words respect a 3-token negation window: "not happy" credits the
// negative accumulator instead of the positive one, and the flipped
// occurrence adds no label. The six risk categories ignore negation — "not
// exhausted" still signals the burnout topic is in play — and never touch
// the polarity scores. An intensifier in the two preceding tokens doubles a
// word's weight. Deterministic for a given input; never panics; empty input
// yields a neutral result with no labels.
func Classify(text string) domain.SentimentResult {
	positiveScore, negativeScore, labels := scoreTokens(tokenize(text))

	primary := domain.SentimentNeutral
	switch {
	case negativeScore > positiveScore:
		primary = domain.SentimentNegative
	case positiveScore > negativeScore:
		primary = domain.SentimentPositive
	}

	return domain.SentimentResult{Primary: primary, Labels: labels}
}

// scoreTokens accumulates polarity scores and risk labels, applying the
// composite escalation rules at the end.
func scoreTokens(tokens []string) (int, int, []string) {
	var positiveScore, negativeScore int
	labels := make([]string, 0, 4)
	seen := make(map[string]struct{})
	addLabel := func(l string) {
		if _, dup := seen[l]; !dup {
			seen[l] = struct{}{}
			labels = append(labels, l)
		}
	}

	for i, tok := range tokens {
		multiplier := 1
		for j := i - intensifierWindow; j < i; j++ {
			if j < 0 {
				continue
			}
			if _, ok := intensifiers[tokens[j]]; ok {
				multiplier = intensifierMultiplier
				break
			}
		}

		for _, name := range categoryOrder {
			cat := lexicons[name]
			weight, hit := cat.Words[tok]
			if !hit {
				continue
			}
			score := weight * multiplier

			switch cat.Polarity {
			case "positive":
				if negatedAt(tokens, i) {
					negativeScore += score
				} else {
					positiveScore += score
				}
			case "negative":
				if negatedAt(tokens, i) {
					positiveScore += score
				} else {
					negativeScore += score
				}
			default:
				addLabel(cat.Label)
			}
		}
	}

	if _, ok := seen["burnout_risk"]; ok && negativeScore > 2 {
		addLabel(labelWellbeingConcern)
	}
	if _, ok := seen["attrition_risk"]; ok && negativeScore > 1 {
		addLabel(labelRetentionFlag)
	}
	if _, ok := seen["conflict_risk"]; ok && negativeScore > 1 {
		addLabel(labelTeamDynamicsIssue)
	}

	return positiveScore, negativeScore, labels
}

// negatedAt reports whether any of the tokens in the negation window before
// position i is a negator.
func negatedAt(tokens []string, i int) bool {
	for j := i - negationWindow; j < i; j++ {
		if j < 0 {
			continue
		}
		if _, ok := negators[tokens[j]]; ok {
			return true
		}
	}
	return false
}

// tokenize lowercases, strips any remaining punctuation, and splits on
// whitespace. Classify accepts raw or sanitized text; either way the tokens
// it scores are clean.
func tokenize(text string) []string {
	t := punctPattern.ReplaceAllString(strings.ToLower(text), "")
	return strings.Fields(t)
}
