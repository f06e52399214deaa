// Package domain defines the event variants, analysis results, and
// collaborator interfaces shared across PulseBridge.
package domain

import "time"

// ChannelType classifies where a message originated on the chat platform.
type ChannelType string

const (
	ChannelPublic  ChannelType = "channel"
	ChannelPrivate ChannelType = "group"
	ChannelDM      ChannelType = "dm"
	ChannelUnknown ChannelType = "unknown"
)

// Event is the tagged union of everything the receiver can hand to the
// orchestrator. Raw platform payloads are translated into exactly one of
// these variants at the boundary; nothing downstream inspects raw payloads.
type Event interface {
	Kind() string
}

// CommandEvent is a slash-command invocation.
type CommandEvent struct {
	Command     string
	Text        string
	WorkspaceID string
	UserID      string
	ChannelID   string
	ResponseURL string
}

func (CommandEvent) Kind() string { return "command" }

// MessageEvent is a regular channel message.
type MessageEvent struct {
	Text            string
	ChannelID       string
	ChannelType     ChannelType
	Subtype         string
	BotID           string
	WorkspaceID     string
	UserID          string
	Timestamp       string
	ThreadTimestamp string
	Received        time.Time
}

func (MessageEvent) Kind() string { return "message" }

// FeedbackVerdict is the direction of a feedback button press.
type FeedbackVerdict string

const (
	FeedbackUp   FeedbackVerdict = "up"
	FeedbackDown FeedbackVerdict = "down"
)

// ActionEvent is an interactive feedback button press. ActionValue carries
// the opaque log-reference id of the answer being rated.
type ActionEvent struct {
	ActionValue string
	Verdict     FeedbackVerdict
	UserID      string
	WorkspaceID string
	ChannelID   string
}

func (ActionEvent) Kind() string { return "action" }
