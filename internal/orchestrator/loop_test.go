package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"pulsebridge/internal/analysis"
	"pulsebridge/internal/backend"
	"pulsebridge/internal/bus"
	"pulsebridge/internal/domain"
	"pulsebridge/internal/insights"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeBackend struct {
	mu sync.Mutex

	tenant    domain.TenantContext
	tenantErr error

	answer   backend.Answer
	queryErr error
	queries  []string

	decision      backend.InterventionDecision
	decisionErr   error
	interventions int

	feedback []string
}

func (f *fakeBackend) ResolveTenant(ctx context.Context, workspaceID string) (domain.TenantContext, error) {
	if f.tenantErr != nil {
		return domain.TenantContext{}, f.tenantErr
	}
	return f.tenant, nil
}

func (f *fakeBackend) Query(ctx context.Context, tenant domain.TenantContext, question string) (backend.Answer, error) {
	f.mu.Lock()
	f.queries = append(f.queries, question)
	f.mu.Unlock()
	if f.queryErr != nil {
		return backend.Answer{}, f.queryErr
	}
	return f.answer, nil
}

func (f *fakeBackend) DecideIntervention(ctx context.Context, tenant domain.TenantContext, msg domain.MessageEvent) (backend.InterventionDecision, error) {
	f.mu.Lock()
	f.interventions++
	f.mu.Unlock()
	if f.decisionErr != nil {
		return backend.InterventionDecision{}, f.decisionErr
	}
	return f.decision, nil
}

func (f *fakeBackend) SubmitFeedback(ctx context.Context, tenant domain.TenantContext, logID string, verdict domain.FeedbackVerdict, userID string) error {
	f.mu.Lock()
	f.feedback = append(f.feedback, logID+":"+string(verdict))
	f.mu.Unlock()
	return nil
}

type fakeResponder struct {
	mu      sync.Mutex
	replies []domain.Reply
}

func (f *fakeResponder) Send(ctx context.Context, reply domain.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, reply)
	return nil
}

func (f *fakeResponder) last(t *testing.T) domain.Reply {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		t.Fatal("no reply was sent")
	}
	return f.replies[len(f.replies)-1]
}

type nullPublisher struct{}

func (nullPublisher) PublishInsights(ctx context.Context, signal domain.InsightsSignal) error {
	return nil
}

func newTestLoop(be *fakeBackend, resp *fakeResponder) *Loop {
	// Sampling off: these tests exercise the primary path only.
	policy := analysis.NewPolicy(analysis.PolicyConfig{SampleRate: 0, MaxTextLength: 1500, MinTextLength: 20})
	pipeline := insights.NewPipeline(policy, nullPublisher{}, testLogger())
	return NewLoop(LoopConfig{
		Backend:   be,
		Pipeline:  pipeline,
		Responder: resp,
		Logger:    testLogger(),
	})
}

func TestHandleCommandAnswers(t *testing.T) {
	be := &fakeBackend{
		tenant: domain.TenantContext{TenantID: "t1", BotCredential: "xoxb-t1"},
		answer: backend.Answer{
			Answer: "Vacation requests go through the HR portal.",
			LogID:  "log-7",
			Sources: []backend.SourceRef{
				{Title: "HR handbook", URL: "https://kb/hr"},
			},
		},
	}
	resp := &fakeResponder{}
	l := newTestLoop(be, resp)

	l.handleEvent(context.Background(), domain.CommandEvent{
		Command:     "/ask",
		Text:        "how do I request vacation?",
		WorkspaceID: "T1",
		UserID:      "U1",
		ChannelID:   "C1",
	})

	if len(be.queries) != 1 || be.queries[0] != "how do I request vacation?" {
		t.Errorf("queries = %v", be.queries)
	}
	reply := resp.last(t)
	if reply.Mode != domain.RespondEphemeral {
		t.Errorf("mode = %q, want ephemeral", reply.Mode)
	}
	if reply.LogID != "log-7" {
		t.Errorf("logId = %q", reply.LogID)
	}
	if reply.Credential != "xoxb-t1" {
		t.Errorf("tenant credential not carried: %q", reply.Credential)
	}
	if !strings.Contains(reply.Text, "HR portal") || !strings.Contains(reply.Text, "*Sources:*") {
		t.Errorf("reply text = %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "<https://kb/hr|HR handbook>") {
		t.Errorf("source link missing: %q", reply.Text)
	}
}

func TestHandleCommandEmptyText(t *testing.T) {
	be := &fakeBackend{tenant: domain.TenantContext{TenantID: "t1"}}
	resp := &fakeResponder{}
	l := newTestLoop(be, resp)

	l.handleEvent(context.Background(), domain.CommandEvent{
		Command: "/ask", Text: "  ", ChannelID: "C1", UserID: "U1",
	})

	if len(be.queries) != 0 {
		t.Error("empty command must not reach the retrieval backend")
	}
	reply := resp.last(t)
	if !strings.Contains(reply.Text, "/ask") {
		t.Errorf("usage hint should name the command: %q", reply.Text)
	}
}

func TestHandleCommandTenantFailure(t *testing.T) {
	be := &fakeBackend{tenantErr: errors.New("tenant service down")}
	resp := &fakeResponder{}
	l := newTestLoop(be, resp)

	l.handleEvent(context.Background(), domain.CommandEvent{
		Command: "/ask", Text: "anything", ChannelID: "C1", UserID: "U1",
	})

	reply := resp.last(t)
	if reply.Text != genericErrorText {
		t.Errorf("user must see only the generic error, got %q", reply.Text)
	}
	if strings.Contains(reply.Text, "tenant service down") {
		t.Error("internal error detail leaked to the user")
	}
}

func TestHandleCommandRetrievalFailure(t *testing.T) {
	be := &fakeBackend{
		tenant:   domain.TenantContext{TenantID: "t1"},
		queryErr: errors.New("retrieval timeout"),
	}
	resp := &fakeResponder{}
	l := newTestLoop(be, resp)

	l.handleEvent(context.Background(), domain.CommandEvent{
		Command: "/ask", Text: "anything", ChannelID: "C1", UserID: "U1",
	})

	if got := resp.last(t).Text; got != genericErrorText {
		t.Errorf("got %q", got)
	}
}

func TestHandleMessageIntervention(t *testing.T) {
	be := &fakeBackend{
		tenant: domain.TenantContext{TenantID: "t1", BotCredential: "xoxb-t1"},
		decision: backend.InterventionDecision{
			ShouldRespond: true,
			ReplyText:     "The deploy runbook is pinned in #ci.",
			RespondMode:   domain.RespondThreadReply,
		},
	}
	resp := &fakeResponder{}
	l := newTestLoop(be, resp)

	l.handleEvent(context.Background(), domain.MessageEvent{
		Text:        "anyone know how deploys work around here?",
		ChannelID:   "C1",
		ChannelType: domain.ChannelPublic,
		WorkspaceID: "T1",
		UserID:      "U2",
		Timestamp:   "1700000000.000100",
	})

	reply := resp.last(t)
	if reply.Mode != domain.RespondThreadReply {
		t.Errorf("mode = %q", reply.Mode)
	}
	if reply.ThreadTimestamp != "1700000000.000100" {
		t.Errorf("thread reply should anchor on the message itself: %q", reply.ThreadTimestamp)
	}
	if reply.Credential != "xoxb-t1" {
		t.Errorf("credential = %q", reply.Credential)
	}
}

func TestHandleMessageNoIntervention(t *testing.T) {
	be := &fakeBackend{
		tenant:   domain.TenantContext{TenantID: "t1"},
		decision: backend.InterventionDecision{ShouldRespond: false},
	}
	resp := &fakeResponder{}
	l := newTestLoop(be, resp)

	l.handleEvent(context.Background(), domain.MessageEvent{
		Text: "just a normal chat message", WorkspaceID: "T1", ChannelID: "C1",
	})

	if be.interventions != 1 {
		t.Errorf("intervention check count = %d", be.interventions)
	}
	if len(resp.replies) != 0 {
		t.Errorf("no reply expected, got %v", resp.replies)
	}
}

func TestHandleMessageTenantFailureIsSilent(t *testing.T) {
	be := &fakeBackend{tenantErr: errors.New("down")}
	resp := &fakeResponder{}
	l := newTestLoop(be, resp)

	l.handleEvent(context.Background(), domain.MessageEvent{
		Text: "a message", WorkspaceID: "T1", ChannelID: "C1",
	})

	if len(resp.replies) != 0 {
		t.Error("event-path tenant failure must be silent to users")
	}
	if be.interventions != 0 {
		t.Error("intervention must not run without a tenant")
	}
}

func TestHandleActionSubmitsFeedback(t *testing.T) {
	be := &fakeBackend{tenant: domain.TenantContext{TenantID: "t1"}}
	resp := &fakeResponder{}
	l := newTestLoop(be, resp)

	l.handleEvent(context.Background(), domain.ActionEvent{
		ActionValue: "log-42",
		Verdict:     domain.FeedbackDown,
		WorkspaceID: "T1",
		UserID:      "U3",
	})

	if len(be.feedback) != 1 || be.feedback[0] != "log-42:down" {
		t.Errorf("feedback = %v", be.feedback)
	}
	if len(resp.replies) != 0 {
		t.Error("feedback handling must not post a reply")
	}
}

func TestThreadTarget(t *testing.T) {
	inThread := domain.MessageEvent{Timestamp: "2.0", ThreadTimestamp: "1.0"}
	if got := threadTarget(inThread, domain.RespondThreadReply); got != "1.0" {
		t.Errorf("existing thread must win, got %q", got)
	}
	topLevel := domain.MessageEvent{Timestamp: "2.0"}
	if got := threadTarget(topLevel, domain.RespondThreadReply); got != "2.0" {
		t.Errorf("top-level message anchors its own thread, got %q", got)
	}
	if got := threadTarget(inThread, domain.RespondChannel); got != "" {
		t.Errorf("non-thread mode must not set a thread, got %q", got)
	}
}

func TestFormatAnswerEmpty(t *testing.T) {
	got := formatAnswer(backend.Answer{})
	if got == "" {
		t.Error("empty answer must still produce user-facing text")
	}
}

func TestRunConsumesFromBus(t *testing.T) {
	be := &fakeBackend{
		tenant: domain.TenantContext{TenantID: "t1"},
		answer: backend.Answer{Answer: "42", LogID: "log-1"},
	}
	resp := &fakeResponder{}
	l := newTestLoop(be, resp)

	b := bus.New(10, testLogger())
	l.bus = b

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	b.Publish(domain.CommandEvent{Command: "/ask", Text: "meaning of life", ChannelID: "C1", UserID: "U1"})

	deadline := time.After(2 * time.Second)
	for {
		resp.mu.Lock()
		n := len(resp.replies)
		resp.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the loop to process the command")
		case <-time.After(10 * time.Millisecond):
		}
	}

	b.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after bus close")
	}
}
