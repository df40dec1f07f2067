package bots

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"colloquium/models"
	"colloquium/services"
	"colloquium/services/commands"
)

// IncomingMessage is one chat message entering the bot pipeline
type IncomingMessage struct {
	MessageID      string
	ConversationID string
	ManuscriptID   string
	JournalID      string
	UserID         string
	UserRole       models.UserRole
	Journal        *models.Journal
	Content        string
}

// MessagesUseCase runs the full inbound pipeline: resolve mentions, parse the
// command, execute it, post the bot's replies and apply its actions. Every
// failure category ends in at least one chat message; a silently dropped
// invocation is a bug.
type MessagesUseCase struct {
	mentions      services.MentionsService
	parser        *commands.Parser
	registry      services.BotRegistryService
	conversations services.ConversationsService
	executor      *Executor
	actions       *ActionProcessor
}

func NewMessagesUseCase(
	mentions services.MentionsService,
	parser *commands.Parser,
	registry services.BotRegistryService,
	conversations services.ConversationsService,
	executor *Executor,
	actions *ActionProcessor,
) *MessagesUseCase {
	return &MessagesUseCase{
		mentions:      mentions,
		parser:        parser,
		registry:      registry,
		conversations: conversations,
		executor:      executor,
		actions:       actions,
	}
}

// ProcessIncomingMessage handles one message. Messages without a bot mention
// are ignored. The returned error covers pipeline infrastructure failures
// only; bot-level failures are surfaced to the conversation, not to the
// caller.
func (u *MessagesUseCase) ProcessIncomingMessage(ctx context.Context, msg IncomingMessage) error {
	resolved, err := u.mentions.ResolveMentions(ctx, msg.Content, msg.ConversationID)
	if err != nil {
		return fmt.Errorf("failed to resolve mentions: %w", err)
	}

	botMentioned := false
	for _, mention := range resolved {
		if mention.Type == models.MentionTypeBot {
			botMentioned = true
			break
		}
	}
	if !botMentioned {
		return nil
	}

	parsed, err := u.parser.ParseMessage(msg.Content, u.registry)
	if err != nil {
		var validationErr *models.ParameterValidationError
		if errors.As(err, &validationErr) {
			return u.postReply(ctx, msg, validationErr.BotID, models.BotMessage{
				Content: validationFailureContent(validationErr),
			})
		}
		return fmt.Errorf("failed to parse command: %w", err)
	}
	if parsed == nil {
		return nil
	}

	log.Printf("📋 Executing @%s %s for manuscript %s", parsed.BotID, parsed.Command, msg.ManuscriptID)
	// audit trail: the command as understood, not as typed
	if !parsed.IsUnrecognized {
		log.Printf("📋 Parsed command: %s", u.parser.Render(parsed))
	}

	result := u.executor.Execute(ctx, parsed, Invocation{
		JournalID:      msg.JournalID,
		ManuscriptID:   msg.ManuscriptID,
		ConversationID: msg.ConversationID,
		MessageID:      msg.MessageID,
		UserID:         msg.UserID,
		UserRole:       msg.UserRole,
		Journal:        msg.Journal,
		Trigger:        models.TriggerMention,
	})

	return u.deliverResult(ctx, msg, parsed.BotID, result)
}

// ProcessEvent fans a system event out to subscribed bots and delivers each
// result the same way a mention-triggered one is delivered
func (u *MessagesUseCase) ProcessEvent(ctx context.Context, eventName string, payload map[string]any, msg IncomingMessage) error {
	results := u.executor.DispatchEvent(ctx, eventName, payload, Invocation{
		JournalID:      msg.JournalID,
		ManuscriptID:   msg.ManuscriptID,
		ConversationID: msg.ConversationID,
		UserID:         msg.UserID,
		UserRole:       msg.UserRole,
		Journal:        msg.Journal,
	})

	for _, eventResult := range results {
		if err := u.deliverResult(ctx, msg, eventResult.BotID, eventResult.Result); err != nil {
			log.Printf("❌ Failed to deliver %s result from bot %s: %v", eventName, eventResult.BotID, err)
		}
	}
	return nil
}

func (u *MessagesUseCase) deliverResult(ctx context.Context, msg IncomingMessage, botID string, result *models.BotResult) error {
	// a handler that reports errors with no output would otherwise vanish
	// from the conversation entirely
	if result.IsSoftFailure() {
		log.Printf("⚠️ Bot %s returned errors without any output: %v", botID, result.Errors)
		return u.postReply(ctx, msg, botID, models.BotMessage{
			Content: fmt.Sprintf("@%s couldn't complete the request.", botID),
		})
	}

	for _, message := range result.Messages {
		if err := u.postReply(ctx, msg, botID, message); err != nil {
			return err
		}
	}

	if len(result.Actions) > 0 {
		failures := u.actions.ProcessActions(ctx, result.Actions, models.ActionContext{
			ManuscriptID:   msg.ManuscriptID,
			ConversationID: msg.ConversationID,
			UserID:         msg.UserID,
			BotID:          botID,
		})
		// action failures stay server-side; the bot's own messages have
		// already been posted and actions are an independent output
		for _, failure := range failures {
			log.Printf("⚠️ Bot %s action %d (%s) not applied: %s", botID, failure.Index, failure.Type, failure.Reason)
		}
	}

	return nil
}

func (u *MessagesUseCase) postReply(ctx context.Context, msg IncomingMessage, botID string, message models.BotMessage) error {
	if message.ReplyTo == "" {
		message.ReplyTo = msg.MessageID
	}
	if _, err := u.conversations.PostBotMessage(ctx, msg.ConversationID, botID, message); err != nil {
		return fmt.Errorf("failed to post bot reply: %w", err)
	}
	return nil
}

func validationFailureContent(validationErr *models.ParameterValidationError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I couldn't run `%s` - some parameters need fixing:\n", validationErr.Command)
	for _, reason := range validationErr.Reasons {
		fmt.Fprintf(&b, "- %s\n", reason)
	}
	return b.String()
}
