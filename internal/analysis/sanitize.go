// Package analysis implements the local heuristic text pipeline: PII-reducing
// sanitization, eligibility gating, sentiment/label classification, and
// keyword extraction. Everything here is pure, synchronous, and allocation
// bound; nothing performs I/O.
package analysis

import (
	"regexp"
	"strings"
)

// Rewrite order matters: each pattern operates on the output of the previous
// one (URLs before emails, dates before bare digit runs).
var (
	mentionPattern  = regexp.MustCompile(`<[@#!][^>]*>`)
	urlPattern      = regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+`)
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern    = regexp.MustCompile(`\+?\d{1,3}[\s.-]?\(?\d{2,4}\)?[\s.-]?\d{3,4}[\s.-]?\d{3,4}`)
	datePattern     = regexp.MustCompile(`\b\d{1,4}[/-]\d{1,2}[/-]\d{1,4}\b`)
	digitRunPattern = regexp.MustCompile(`\d{4,}`)
	// Apostrophes are deleted (not spaced) so contractions stay one token.
	apostrophePattern = regexp.MustCompile(`['’]+`)
	// Unicode-aware: keeps letters and numbers in any script, so non-ASCII
	// text survives sanitization intact. Replaced with a space, never
	// deleted: deleting would fuse adjacent digit groups ("1,234" into
	// "1234") into runs the digit-run step already passed over.
	punctPattern      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Sanitize strips identifying tokens from raw text: platform mention markup,
// URLs, emails, phone-shaped digit groups, explicit dates, long digit runs,
// and finally all remaining punctuation. Whitespace is collapsed and trimmed.
// Sanitize is idempotent and never panics; any internal failure yields ""
// (empty text is filtered out downstream, so failing closed is safe).
func Sanitize(raw string) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()

	t := mentionPattern.ReplaceAllString(raw, " ")
	t = urlPattern.ReplaceAllString(t, " ")
	t = emailPattern.ReplaceAllString(t, " ")
	t = phonePattern.ReplaceAllString(t, " ")
	t = datePattern.ReplaceAllString(t, " ")
	t = digitRunPattern.ReplaceAllString(t, " ")
	t = apostrophePattern.ReplaceAllString(t, "")
	t = punctPattern.ReplaceAllString(t, " ")
	t = whitespacePattern.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}
