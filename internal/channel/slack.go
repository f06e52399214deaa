// Package channel connects PulseBridge to the workspace chat platform.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"pulsebridge/internal/domain"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

const slackMaxMsgLen = 4000

// Feedback button action ids on answer messages.
const (
	actionFeedbackUp   = "feedback_up"
	actionFeedbackDown = "feedback_down"
)

// Slack receives workspace events over Socket Mode, translates them into
// domain event variants at the boundary, and delivers replies. Nothing past
// this package ever sees a raw platform payload.
type Slack struct {
	botToken string
	appToken string
	client   *slack.Client
	socket   *socketmode.Client
	bus      domain.EventBus
	logger   *slog.Logger
	botUID   string // the bot's own user ID, to avoid reacting to self
}

// SlackConfig configures the Slack channel.
type SlackConfig struct {
	BotToken string
	AppToken string
	Logger   *slog.Logger
}

// NewSlack creates a new Slack channel handler.
func NewSlack(cfg SlackConfig) *Slack {
	return &Slack{
		botToken: cfg.BotToken,
		appToken: cfg.AppToken,
		logger:   cfg.Logger,
	}
}

func (s *Slack) Name() string { return "slack" }

// Start connects via Socket Mode and begins listening for events. Every
// envelope is acked immediately — for slash commands the ack doubles as the
// required immediate acknowledgment before the asynchronous response.
func (s *Slack) Start(ctx context.Context, bus domain.EventBus) error {
	s.bus = bus

	api := slack.New(
		s.botToken,
		slack.OptionAppLevelToken(s.appToken),
	)
	s.client = api

	authResp, err := api.AuthTest()
	if err != nil {
		return fmt.Errorf("slack auth: %w", err)
	}
	s.botUID = authResp.UserID
	s.logger.Info("slack connected", "user", authResp.User, "user_id", authResp.UserID)

	socketClient := socketmode.New(api)
	s.socket = socketClient

	// Event handling goroutine.
	go func() {
		for evt := range socketClient.Events {
			switch evt.Type {
			case socketmode.EventTypeEventsAPI:
				eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				socketClient.Ack(*evt.Request)
				s.handleEventsAPI(eventsAPIEvent)

			case socketmode.EventTypeSlashCommand:
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				socketClient.Ack(*evt.Request)
				s.handleSlashCommand(cmd)

			case socketmode.EventTypeInteractive:
				cb, ok := evt.Data.(slack.InteractionCallback)
				if !ok {
					continue
				}
				socketClient.Ack(*evt.Request)
				s.handleInteractive(cb)

			default:
				// Acknowledge unknown events to prevent Socket Mode disconnection.
				if evt.Request != nil {
					socketClient.Ack(*evt.Request)
				}
			}
		}
	}()

	// Run Socket Mode client (blocks until context is done).
	errCh := make(chan error, 1)
	go func() {
		errCh <- socketClient.RunContext(ctx)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("slack disconnecting")
		return nil
	case err := <-errCh:
		return fmt.Errorf("slack socket mode: %w", err)
	}
}

func (s *Slack) handleEventsAPI(event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return
	}
	// Ignore the bot's own messages; everything else is filtered by the
	// eligibility gate, not here.
	if ev.User == s.botUID {
		return
	}

	s.logger.Debug("slack message received",
		"channel", ev.Channel,
		"subtype", ev.SubType,
		"content_len", len(ev.Text),
	)

	s.bus.Publish(TranslateMessage(ev, event.TeamID))
}

// TranslateMessage converts a raw platform message into the domain variant.
func TranslateMessage(ev *slackevents.MessageEvent, teamID string) domain.MessageEvent {
	return domain.MessageEvent{
		Text:            ev.Text,
		ChannelID:       ev.Channel,
		ChannelType:     translateChannelType(ev.ChannelType),
		Subtype:         ev.SubType,
		BotID:           ev.BotID,
		WorkspaceID:     teamID,
		UserID:          ev.User,
		Timestamp:       ev.TimeStamp,
		ThreadTimestamp: ev.ThreadTimeStamp,
	}
}

func translateChannelType(t string) domain.ChannelType {
	switch t {
	case "channel":
		return domain.ChannelPublic
	case "group":
		return domain.ChannelPrivate
	case "im":
		return domain.ChannelDM
	default:
		return domain.ChannelUnknown
	}
}

func (s *Slack) handleSlashCommand(cmd slack.SlashCommand) {
	s.logger.Info("slash command",
		"command", cmd.Command,
		"user", cmd.UserID,
		"channel", cmd.ChannelID,
	)

	s.bus.Publish(domain.CommandEvent{
		Command:     cmd.Command,
		Text:        strings.TrimSpace(cmd.Text),
		WorkspaceID: cmd.TeamID,
		UserID:      cmd.UserID,
		ChannelID:   cmd.ChannelID,
		ResponseURL: cmd.ResponseURL,
	})
}

func (s *Slack) handleInteractive(cb slack.InteractionCallback) {
	if cb.Type != slack.InteractionTypeBlockActions {
		return
	}
	for _, action := range cb.ActionCallback.BlockActions {
		var verdict domain.FeedbackVerdict
		switch action.ActionID {
		case actionFeedbackUp:
			verdict = domain.FeedbackUp
		case actionFeedbackDown:
			verdict = domain.FeedbackDown
		default:
			continue
		}

		s.bus.Publish(domain.ActionEvent{
			ActionValue: action.Value,
			Verdict:     verdict,
			UserID:      cb.User.ID,
			WorkspaceID: cb.Team.ID,
			ChannelID:   cb.Channel.ID,
		})
	}
}

// Send delivers a reply in the requested mode. A tenant-scoped credential
// overrides the default bot token for the post.
func (s *Slack) Send(ctx context.Context, reply domain.Reply) error {
	client := s.client
	if reply.Credential != "" {
		client = slack.New(reply.Credential)
	}

	for _, chunk := range splitSlackMessage(reply.Text, slackMaxMsgLen) {
		opts := []slack.MsgOption{slack.MsgOptionText(chunk, false)}
		if reply.LogID != "" {
			opts = append(opts, slack.MsgOptionBlocks(feedbackBlocks(chunk, reply.LogID)...))
		}

		var err error
		switch reply.Mode {
		case domain.RespondEphemeral:
			_, err = client.PostEphemeralContext(ctx, reply.ChannelID, reply.UserID, opts...)
		case domain.RespondThreadReply:
			opts = append(opts, slack.MsgOptionTS(reply.ThreadTimestamp))
			_, _, err = client.PostMessageContext(ctx, reply.ChannelID, opts...)
		default:
			_, _, err = client.PostMessageContext(ctx, reply.ChannelID, opts...)
		}
		if err != nil {
			return fmt.Errorf("slack send: %w", err)
		}
	}
	return nil
}

// feedbackBlocks renders the answer text with up/down feedback buttons
// carrying the answer's log-reference id.
func feedbackBlocks(text, logID string) []slack.Block {
	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
			nil, nil,
		),
		slack.NewActionBlock("feedback",
			slack.NewButtonBlockElement(actionFeedbackUp, logID,
				slack.NewTextBlockObject(slack.PlainTextType, "👍 Helpful", true, false)),
			slack.NewButtonBlockElement(actionFeedbackDown, logID,
				slack.NewTextBlockObject(slack.PlainTextType, "👎 Not helpful", true, false)),
		),
	}
}

func splitSlackMessage(msg string, maxLen int) []string {
	if len(msg) <= maxLen {
		return []string{msg}
	}

	var chunks []string
	for len(msg) > 0 {
		if len(msg) <= maxLen {
			chunks = append(chunks, msg)
			break
		}
		cut := maxLen
		if idx := strings.LastIndex(msg[:maxLen], "\n"); idx > maxLen/2 {
			cut = idx + 1
		} else {
			// Never split a multibyte rune.
			for cut > 0 && !utf8.RuneStart(msg[cut]) {
				cut--
			}
		}
		chunks = append(chunks, msg[:cut])
		msg = msg[cut:]
	}
	return chunks
}
