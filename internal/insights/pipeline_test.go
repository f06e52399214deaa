package insights

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"pulsebridge/internal/analysis"
	"pulsebridge/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type fakePublisher struct {
	mu      sync.Mutex
	signals []domain.InsightsSignal
	err     error
}

func (f *fakePublisher) PublishInsights(ctx context.Context, signal domain.InsightsSignal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.signals = append(f.signals, signal)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.signals)
}

func alwaysPolicy() *analysis.Policy {
	return analysis.NewPolicy(analysis.PolicyConfig{
		SampleRate:    1,
		MaxTextLength: 1500,
		MinTextLength: 20,
	})
}

func channelMessage(text string) domain.MessageEvent {
	return domain.MessageEvent{
		Text:        text,
		ChannelID:   "C123",
		ChannelType: domain.ChannelPublic,
		WorkspaceID: "T999",
		UserID:      "U001",
	}
}

func TestPipeline_RateZeroMakesNoCalls(t *testing.T) {
	pub := &fakePublisher{}
	policy := analysis.NewPolicy(analysis.PolicyConfig{SampleRate: 0, MaxTextLength: 1500, MinTextLength: 20})
	p := NewPipeline(policy, pub, testLogger())

	for _, text := range []string{
		"I think the new deployment process is really broken and I'm exhausted",
		"a perfectly normal message about lunch plans today",
		"",
	} {
		if out := p.Process(context.Background(), domain.TenantContext{TenantID: "t1"}, channelMessage(text)); out != OutcomeSampledOut {
			t.Errorf("rate 0: expected sampled_out, got %s", out)
		}
	}
	if pub.count() != 0 {
		t.Errorf("rate 0 must make zero outbound calls, made %d", pub.count())
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	pub := &fakePublisher{}
	p := NewPipeline(alwaysPolicy(), pub, testLogger())

	msg := channelMessage("I think the new deployment process is really broken and I'm exhausted")
	out := p.Process(context.Background(), domain.TenantContext{TenantID: "tenant-42"}, msg)
	if out != OutcomePublished {
		t.Fatalf("expected published, got %s", out)
	}
	if pub.count() != 1 {
		t.Fatalf("expected one signal, got %d", pub.count())
	}

	signal := pub.signals[0]
	if signal.TenantID != "tenant-42" {
		t.Errorf("tenant id lost: %q", signal.TenantID)
	}
	if signal.Source != domain.SignalSource {
		t.Errorf("source wrong: %q", signal.Source)
	}
	if strings.ContainsAny(signal.SanitizedText, ".,!?'") {
		t.Errorf("sanitized text still has punctuation: %q", signal.SanitizedText)
	}
	if signal.Sentiment.Primary != domain.SentimentNegative {
		t.Errorf("expected negative, got %s", signal.Sentiment.Primary)
	}
	if !signal.Sentiment.HasLabel("tooling_frustration") || !signal.Sentiment.HasLabel("burnout_risk") {
		t.Errorf("expected tooling_frustration and burnout_risk, got %v", signal.Sentiment.Labels)
	}
	joined := strings.Join(signal.Keywords, " ")
	for _, kw := range []string{"deployment", "process", "broken", "exhausted"} {
		if !strings.Contains(joined, kw) {
			t.Errorf("expected keyword %q, got %v", kw, signal.Keywords)
		}
	}

	wantHash := fmt.Sprintf("%x", sha256.Sum256([]byte(signal.SanitizedText)))
	if signal.ContentHash != wantHash {
		t.Errorf("content hash mismatch: %s != %s", signal.ContentHash, wantHash)
	}
}

func TestPipeline_IneligibleIsSilent(t *testing.T) {
	pub := &fakePublisher{}
	p := NewPipeline(alwaysPolicy(), pub, testLogger())

	msg := channelMessage("this message is long enough to pass the word count")
	msg.BotID = "B001"
	if out := p.Process(context.Background(), domain.TenantContext{}, msg); out != OutcomeIneligible {
		t.Errorf("expected ineligible, got %s", out)
	}
	if pub.count() != 0 {
		t.Error("ineligible message must not publish")
	}
}

func TestPipeline_TooShortAfterSanitize(t *testing.T) {
	pub := &fakePublisher{}
	p := NewPipeline(alwaysPolicy(), pub, testLogger())

	// Four words, but sanitization strips it below the minimum length.
	msg := channelMessage("see https://a.io <@U1> ok")
	out := p.Process(context.Background(), domain.TenantContext{}, msg)
	if out != OutcomeTooShort && out != OutcomeEmptyText {
		t.Errorf("expected a short-text outcome, got %s", out)
	}
	if pub.count() != 0 {
		t.Error("short residue must not publish")
	}
}

func TestPipeline_NumericResidueIsNoise(t *testing.T) {
	pub := &fakePublisher{}
	policy := analysis.NewPolicy(analysis.PolicyConfig{SampleRate: 1, MaxTextLength: 1500, MinTextLength: 5})
	p := NewPipeline(policy, pub, testLogger())

	msg := channelMessage("111 222 333 444 555")
	if out := p.Process(context.Background(), domain.TenantContext{}, msg); out != OutcomeNoise {
		t.Errorf("expected noise, got %s", out)
	}
	if pub.count() != 0 {
		t.Error("noise must not publish")
	}
}

func TestPipeline_PublishFailureIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: fmt.Errorf("ingest down")}
	p := NewPipeline(alwaysPolicy(), pub, testLogger())

	msg := channelMessage("the whole team is exhausted and morale is terrible lately")
	if out := p.Process(context.Background(), domain.TenantContext{TenantID: "t"}, msg); out != OutcomePublishFailed {
		t.Errorf("expected publish_failed, got %s", out)
	}
}
