package domain

// Polarity is the primary sentiment of a message.
type Polarity string

const (
	SentimentPositive Polarity = "positive"
	SentimentNegative Polarity = "negative"
	SentimentNeutral  Polarity = "neutral"
)

// SentimentResult is the classifier output: a primary polarity plus zero or
// more risk labels. Labels are deduplicated; their order is not significant.
type SentimentResult struct {
	Primary Polarity `json:"primary"`
	Labels  []string `json:"labels"`
}

// HasLabel reports whether the result carries the given label.
func (r SentimentResult) HasLabel(label string) bool {
	for _, l := range r.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// InsightsSignal is the only analytics object that leaves the process.
// It must never contain raw unsanitized text or user/channel identifiers.
type InsightsSignal struct {
	TenantID      string          `json:"tenantId"`
	ContentHash   string          `json:"contentHash"`
	SanitizedText string          `json:"sanitizedText"`
	Sentiment     SentimentResult `json:"sentiment"`
	Keywords      []string        `json:"keywords"`
	Source        string          `json:"source"`
}

// SignalSource identifies this bridge in outbound signals.
const SignalSource = "chat-platform"

// TenantContext is the result of resolving a workspace to its owning tenant.
// It lives for the handling of one event and is never cached across events.
type TenantContext struct {
	TenantID      string
	BotCredential string
}
