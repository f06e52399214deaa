package analysis

import (
	"regexp"
	"strings"
	"unicode"

	"pulsebridge/internal/domain"
)

// Subtypes marking automated or system events, never organic conversation.
var skipSubtypes = map[string]struct{}{
	"bot_message":     {},
	"channel_join":    {},
	"channel_leave":   {},
	"channel_topic":   {},
	"channel_purpose": {},
	"file_share":      {},
	"message_changed": {},
	"message_deleted": {},
}

// publicChannelPrefix is the platform's id prefix for public channels.
const publicChannelPrefix = "C"

const minWordCount = 4

var emojiShortcodeOnly = regexp.MustCompile(`^(?:\s*:[a-z0-9_+'-]+:\s*)+$`)

// IsEligible reports whether a message is even a candidate for analysis.
// Only organic human messages from public channels qualify. This predicate
// is total: it never panics, whatever the message contains.
func IsEligible(msg domain.MessageEvent) bool {
	// Channel type and id prefix are both checked; either alone can be
	// missing on partially populated payloads.
	if msg.ChannelType != domain.ChannelPublic {
		return false
	}
	if !strings.HasPrefix(msg.ChannelID, publicChannelPrefix) {
		return false
	}
	if msg.BotID != "" {
		return false
	}
	if _, skip := skipSubtypes[msg.Subtype]; skip {
		return false
	}
	if len(strings.Fields(msg.Text)) < minWordCount {
		return false
	}
	if isEmojiOnly(msg.Text) {
		return false
	}
	return true
}

// isEmojiOnly matches messages that are nothing but emoji: either a run of
// :shortcode: tokens, or text with no letters or digits at all (bare emoji
// glyphs, dingbats).
func isEmojiOnly(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	if emojiShortcodeOnly.MatchString(t) {
		return true
	}
	for _, r := range t {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsNumericOrDateOnly reports whether text is purely numeric or date-shaped
// residue: every character is a digit, whitespace, or one of ":/-.," and at
// least one digit is present. Used after sanitization to drop leftovers that
// carry no semantic content.
func IsNumericOrDateOnly(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	hasDigit := false
	for _, r := range t {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case unicode.IsSpace(r):
		case r == ':' || r == '/' || r == '-' || r == '.' || r == ',':
		default:
			return false
		}
	}
	return hasDigit
}
