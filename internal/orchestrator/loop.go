// Package orchestrator consumes inbound events and drives the primary
// response path (commands, interventions, feedback) and the detached
// insights path.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pulsebridge/internal/backend"
	"pulsebridge/internal/domain"
	"pulsebridge/internal/insights"
	"pulsebridge/internal/metrics"

	"github.com/google/uuid"
)

const (
	defaultConcurrency = 10
	// eventTimeout bounds one event's primary path end to end. The
	// retrieval call carries its own tighter timeout inside this one.
	eventTimeout = 30 * time.Second
)

// genericErrorText is the only failure text end users ever see. Internal
// error detail stays in the logs.
const genericErrorText = "Sorry, the service is temporarily unavailable. Please try again shortly."

// Backend is the set of collaborator calls the orchestrator makes.
type Backend interface {
	ResolveTenant(ctx context.Context, workspaceID string) (domain.TenantContext, error)
	Query(ctx context.Context, tenant domain.TenantContext, question string) (backend.Answer, error)
	DecideIntervention(ctx context.Context, tenant domain.TenantContext, msg domain.MessageEvent) (backend.InterventionDecision, error)
	SubmitFeedback(ctx context.Context, tenant domain.TenantContext, logID string, verdict domain.FeedbackVerdict, userID string) error
}

// Loop dispatches inbound events with bounded concurrency. Each event gets
// its own goroutine and its own locals; no state is shared between in-flight
// events.
type Loop struct {
	backend     Backend
	pipeline    *insights.Pipeline
	responder   domain.Responder
	bus         domain.EventBus
	logger      *slog.Logger
	concurrency int
}

// LoopConfig holds the orchestrator dependencies.
type LoopConfig struct {
	Backend     Backend
	Pipeline    *insights.Pipeline
	Responder   domain.Responder
	Bus         domain.EventBus
	Logger      *slog.Logger
	Concurrency int
}

func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Loop{
		backend:     cfg.Backend,
		pipeline:    cfg.Pipeline,
		responder:   cfg.Responder,
		bus:         cfg.Bus,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
	}
}

// Run consumes inbound events until the context is cancelled or the bus
// closes.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("orchestrator started", "concurrency", l.concurrency)

	sem := make(chan struct{}, l.concurrency)
	inbound := l.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("orchestrator stopping")
			return
		case ev, ok := <-inbound:
			if !ok {
				l.logger.Info("inbound channel closed, orchestrator stopping")
				return
			}
			sem <- struct{}{}
			go func(ev domain.Event) {
				defer func() { <-sem }()
				l.handleEvent(ctx, ev)
			}(ev)
		}
	}
}

func (l *Loop) handleEvent(ctx context.Context, ev domain.Event) {
	metrics.EventsTotal.Inc()

	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()
	log := l.logger.With("event_id", uuid.NewString(), "kind", ev.Kind())

	switch e := ev.(type) {
	case domain.CommandEvent:
		l.handleCommand(ctx, log, e)
	case domain.MessageEvent:
		l.handleMessage(ctx, log, e)
	case domain.ActionEvent:
		l.handleAction(ctx, log, e)
	default:
		log.Warn("unknown event variant")
	}
}

// handleCommand answers a slash-command question. The receiver has already
// acked the command; this is the asynchronous response.
func (l *Loop) handleCommand(ctx context.Context, log *slog.Logger, cmd domain.CommandEvent) {
	metrics.CommandsTotal.Inc()

	if strings.TrimSpace(cmd.Text) == "" {
		l.send(log, domain.Reply{
			ChannelID: cmd.ChannelID,
			UserID:    cmd.UserID,
			Mode:      domain.RespondEphemeral,
			Text:      "Ask me something, e.g. `" + cmd.Command + " how do I request vacation?`",
		})
		return
	}

	tenant, err := l.backend.ResolveTenant(ctx, cmd.WorkspaceID)
	if err != nil {
		metrics.TenantFailures.Inc()
		log.Error("tenant resolution failed", "err", err)
		l.sendGenericError(log, cmd.ChannelID, cmd.UserID)
		return
	}

	start := time.Now()
	answer, err := l.backend.Query(ctx, tenant, cmd.Text)
	metrics.RetrievalLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error("retrieval failed", "err", err)
		l.sendGenericError(log, cmd.ChannelID, cmd.UserID)
		return
	}

	l.send(log, domain.Reply{
		ChannelID:  cmd.ChannelID,
		UserID:     cmd.UserID,
		Mode:       domain.RespondEphemeral,
		Text:       formatAnswer(answer),
		LogID:      answer.LogID,
		Credential: tenant.BotCredential,
	})
}

// handleMessage fans a channel message out to the two independent branches:
// the detached insights pipeline and the synchronous intervention check.
// Insights failures or slowness never delay the intervention branch, and
// vice versa.
func (l *Loop) handleMessage(ctx context.Context, log *slog.Logger, msg domain.MessageEvent) {
	tenant, err := l.backend.ResolveTenant(ctx, msg.WorkspaceID)
	if err != nil {
		// Event path: silent abort, nothing user-visible.
		metrics.TenantFailures.Inc()
		log.Warn("tenant resolution failed, dropping event", "err", err)
		return
	}

	l.pipeline.ProcessDetached(tenant, msg)

	decision, err := l.backend.DecideIntervention(ctx, tenant, msg)
	if err != nil {
		log.Warn("intervention decision failed", "err", err)
		return
	}
	if !decision.ShouldRespond || decision.ReplyText == "" {
		return
	}

	metrics.InterventionsTotal.Inc()
	l.send(log, domain.Reply{
		ChannelID:       msg.ChannelID,
		UserID:          msg.UserID,
		ThreadTimestamp: threadTarget(msg, decision.RespondMode),
		Mode:            decision.RespondMode,
		Text:            decision.ReplyText,
		Credential:      tenant.BotCredential,
	})
}

// handleAction records a feedback button press.
func (l *Loop) handleAction(ctx context.Context, log *slog.Logger, act domain.ActionEvent) {
	tenant, err := l.backend.ResolveTenant(ctx, act.WorkspaceID)
	if err != nil {
		metrics.TenantFailures.Inc()
		log.Warn("tenant resolution failed, dropping feedback", "err", err)
		return
	}

	if err := l.backend.SubmitFeedback(ctx, tenant, act.ActionValue, act.Verdict, act.UserID); err != nil {
		log.Warn("feedback submission failed", "err", err)
		return
	}
	metrics.FeedbackTotal.Inc()
	log.Info("feedback recorded", "verdict", string(act.Verdict))
}

func (l *Loop) send(log *slog.Logger, reply domain.Reply) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := l.responder.Send(ctx, reply); err != nil {
		log.Error("reply delivery failed", "err", err)
	}
}

func (l *Loop) sendGenericError(log *slog.Logger, channelID, userID string) {
	l.send(log, domain.Reply{
		ChannelID: channelID,
		UserID:    userID,
		Mode:      domain.RespondEphemeral,
		Text:      genericErrorText,
	})
}

// threadTarget picks the thread timestamp for a thread reply: the message's
// existing thread when it has one, otherwise the message itself.
func threadTarget(msg domain.MessageEvent, mode domain.RespondMode) string {
	if mode != domain.RespondThreadReply {
		return ""
	}
	if msg.ThreadTimestamp != "" {
		return msg.ThreadTimestamp
	}
	return msg.Timestamp
}

// formatAnswer renders an answer with its source citations.
func formatAnswer(a backend.Answer) string {
	text := a.Reply()
	if text == "" {
		text = "I couldn't find an answer to that."
	}
	if len(a.Sources) == 0 {
		return text
	}

	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\n*Sources:*")
	for _, src := range a.Sources {
		sb.WriteString("\n• ")
		if src.URL != "" {
			sb.WriteString("<" + src.URL + "|" + src.Title + ">")
		} else {
			sb.WriteString(src.Title)
		}
	}
	return sb.String()
}
