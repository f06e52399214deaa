package domain

import "context"

// EventBus routes inbound events from the receiver to the orchestrator.
type EventBus interface {
	Publish(ev Event)
	Subscribe() <-chan Event
	Close()
}

// Reply is an outbound response to the chat platform.
type Reply struct {
	ChannelID       string
	UserID          string // required for ephemeral delivery
	ThreadTimestamp string // required for thread replies
	Text            string
	Mode            RespondMode
	LogID           string // attaches feedback buttons when set
	Credential      string // tenant-scoped bot credential; empty uses the default token
}

// RespondMode selects how a reply is delivered.
type RespondMode string

const (
	RespondEphemeral   RespondMode = "ephemeral"
	RespondThreadReply RespondMode = "threadReply"
	RespondChannel     RespondMode = "channelMessage"
)

// Responder delivers replies back to the chat platform.
type Responder interface {
	Send(ctx context.Context, reply Reply) error
}
