// Package insights runs the per-message analysis pipeline: sampling,
// eligibility gating, sanitization, classification, keyword extraction, and
// publication of the de-identified signal. The pipeline is privacy-by-
// default: every gate that fails exits silently with no side effect, and
// nothing it publishes contains raw text or user/channel identifiers.
package insights

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pulsebridge/internal/analysis"
	"pulsebridge/internal/domain"
	"pulsebridge/internal/metrics"
)

// Outcome is the terminal state of one pipeline run.
type Outcome string

const (
	OutcomeSampledOut    Outcome = "sampled_out"
	OutcomeIneligible    Outcome = "ineligible"
	OutcomeEmptyText     Outcome = "empty_after_sanitize"
	OutcomeTooShort      Outcome = "too_short"
	OutcomeNoise         Outcome = "noise"
	OutcomePublished     Outcome = "published"
	OutcomePublishFailed Outcome = "publish_failed"
)

// publishTimeout bounds the detached publish call so a dead ingest endpoint
// cannot accumulate goroutines. Nothing waits on this path.
const publishTimeout = 15 * time.Second

// Publisher submits a finished signal to the ingest backend.
type Publisher interface {
	PublishInsights(ctx context.Context, signal domain.InsightsSignal) error
}

// Pipeline is the per-message analysis pipeline. It holds no mutable state;
// every run operates on its own local values only.
type Pipeline struct {
	policy    *analysis.Policy
	publisher Publisher
	logger    *slog.Logger
}

func NewPipeline(policy *analysis.Policy, publisher Publisher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		policy:    policy,
		publisher: publisher,
		logger:    logger,
	}
}

// Process runs the full gate chain for one message and returns the terminal
// state. Every exit before "published" is silent: no error reaches the
// user-facing path, which must never be affected by insights collection.
func (p *Pipeline) Process(ctx context.Context, tenant domain.TenantContext, msg domain.MessageEvent) Outcome {
	if !p.policy.ShouldProcess() {
		return p.done(OutcomeSampledOut)
	}
	if !analysis.IsEligible(msg) {
		return p.done(OutcomeIneligible)
	}

	sanitized := analysis.Sanitize(p.policy.ClampLength(msg.Text))
	if sanitized == "" {
		return p.done(OutcomeEmptyText)
	}
	if !p.policy.LongEnough(sanitized) {
		return p.done(OutcomeTooShort)
	}
	if analysis.IsNumericOrDateOnly(sanitized) {
		return p.done(OutcomeNoise)
	}

	// Classification and keyword extraction are pure functions over the
	// same immutable text, so they can run concurrently.
	var (
		sentiment domain.SentimentResult
		keywords  []string
		wg        sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sentiment = analysis.Classify(sanitized)
	}()
	go func() {
		defer wg.Done()
		keywords = analysis.ExtractKeywords(sanitized)
	}()
	wg.Wait()

	signal := domain.InsightsSignal{
		TenantID:      tenant.TenantID,
		ContentHash:   hashContent(sanitized),
		SanitizedText: sanitized,
		Sentiment:     sentiment,
		Keywords:      keywords,
		Source:        domain.SignalSource,
	}

	if err := p.publisher.PublishInsights(ctx, signal); err != nil {
		// Logged only: not retried here, never surfaced to the user.
		p.logger.Warn("insights publish failed", "err", err)
		return p.done(OutcomePublishFailed)
	}
	return p.done(OutcomePublished)
}

// ProcessDetached runs Process in a fire-and-forget goroutine with its own
// bounded context. Internal panics are caught here; the caller never joins
// this task and its result is only logged.
func (p *Pipeline) ProcessDetached(tenant domain.TenantContext, msg domain.MessageEvent) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("insights pipeline panicked", "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		outcome := p.Process(ctx, tenant, msg)
		p.logger.Debug("insights pipeline finished", "outcome", string(outcome))
	}()
}

func (p *Pipeline) done(o Outcome) Outcome {
	metrics.PipelineOutcome(string(o)).Inc()
	return o
}

// hashContent is the one-way digest of sanitized text, used downstream for
// deduplication. It is never reversible to the original message.
func hashContent(sanitized string) string {
	sum := sha256.Sum256([]byte(sanitized))
	return fmt.Sprintf("%x", sum)
}
