package analysis

import (
	"math/rand"
	"unicode/utf8"
)

// Policy decides whether a message is analyzed at all (probabilistic
// sampling) and bounds text length before and after sanitization. Rate and
// bounds are fixed at construction; Policy reads no ambient state.
type Policy struct {
	rate   float64
	maxLen int
	minLen int
	randFn func() float64
}

// PolicyConfig tunes a Policy. RandFn overrides the uniform draw in tests.
type PolicyConfig struct {
	SampleRate    float64
	MaxTextLength int
	MinTextLength int
	RandFn        func() float64
}

func NewPolicy(cfg PolicyConfig) *Policy {
	if cfg.RandFn == nil {
		cfg.RandFn = rand.Float64
	}
	return &Policy{
		rate:   cfg.SampleRate,
		maxLen: cfg.MaxTextLength,
		minLen: cfg.MinTextLength,
		randFn: cfg.RandFn,
	}
}

// ShouldProcess draws one uniform value per message. Rate 0 disables
// processing entirely; rate 1 processes every eligible message.
func (p *Policy) ShouldProcess() bool {
	if p.rate <= 0 {
		return false
	}
	if p.rate >= 1 {
		return true
	}
	return p.randFn() < p.rate
}

// ClampLength truncates text to the configured maximum number of characters.
// Truncation happens before sanitization so the sanitizer always operates on
// bounded input.
func (p *Policy) ClampLength(text string) string {
	if p.maxLen <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= p.maxLen {
		return text
	}
	return string(runes[:p.maxLen])
}

// LongEnough reports whether sanitized text meets the minimum length for
// analysis. Counted in runes, same unit as ClampLength, so non-ASCII
// scripts are gated on characters rather than bytes.
func (p *Policy) LongEnough(sanitized string) bool {
	return utf8.RuneCountInString(sanitized) >= p.minLen
}
