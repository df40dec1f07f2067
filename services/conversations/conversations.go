package conversations

import (
	"context"
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/samber/mo"

	"colloquium/core"
	"colloquium/db"
	"colloquium/models"
	"colloquium/services"
)

type ConversationsService struct {
	conversationsRepo *db.PostgresConversationsRepository
	realtimeNotifier  services.RealtimeNotifier
}

func NewConversationsService(
	repo *db.PostgresConversationsRepository,
	realtimeNotifier services.RealtimeNotifier,
) *ConversationsService {
	return &ConversationsService{
		conversationsRepo: repo,
		realtimeNotifier:  realtimeNotifier,
	}
}

func (s *ConversationsService) CreateConversation(
	ctx context.Context,
	manuscriptID string,
	conversationType models.ConversationType,
	title string,
	participantIDs []string,
	createdByID string,
) (*models.Conversation, error) {
	log.Printf("📋 Starting to create %s conversation for manuscript %s", conversationType, manuscriptID)

	if manuscriptID == "" {
		return nil, fmt.Errorf("manuscript_id cannot be empty")
	}
	if conversationType == "" {
		return nil, fmt.Errorf("conversation type cannot be empty")
	}

	conversation := &models.Conversation{
		ID:             core.NewID("conv"),
		ManuscriptID:   manuscriptID,
		Type:           conversationType,
		Title:          title,
		ParticipantIDs: pq.StringArray(participantIDs),
		CreatedByID:    createdByID,
	}

	if err := s.conversationsRepo.CreateConversation(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	log.Printf("📋 Completed successfully - created conversation %s", conversation.ID)
	return conversation, nil
}

func (s *ConversationsService) GetConversationByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Conversation], error) {
	conversation, err := s.conversationsRepo.GetConversationByID(ctx, id)
	if err != nil {
		if core.IsNotFoundError(err) {
			return mo.None[*models.Conversation](), nil
		}
		return mo.None[*models.Conversation](), fmt.Errorf("failed to get conversation: %w", err)
	}

	return mo.Some(conversation), nil
}

func (s *ConversationsService) ListParticipants(
	ctx context.Context,
	conversationID string,
) ([]*models.Participant, error) {
	participants, err := s.conversationsRepo.ListParticipants(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	return participants, nil
}

// PostBotMessage persists a bot-authored message and pushes it to connected
// clients. A realtime delivery failure is logged, not returned - the message
// is already durable.
func (s *ConversationsService) PostBotMessage(
	ctx context.Context,
	conversationID, botID string,
	message models.BotMessage,
) (*models.ConversationMessage, error) {
	log.Printf("📋 Starting to post message from bot %s to conversation %s", botID, conversationID)

	if conversationID == "" {
		return nil, fmt.Errorf("conversation_id cannot be empty")
	}
	if botID == "" {
		return nil, fmt.Errorf("bot_id cannot be empty")
	}

	record := &models.ConversationMessage{
		ID:             core.NewID("msg"),
		ConversationID: conversationID,
		AuthorBotID:    &botID,
		Content:        message.Content,
		Metadata:       message.Metadata,
	}
	if message.ReplyTo != "" {
		record.ReplyToID = &message.ReplyTo
	}

	if err := s.conversationsRepo.CreateMessage(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist bot message: %w", err)
	}

	if err := s.realtimeNotifier.EmitMessageCreated(conversationID, record); err != nil {
		log.Printf("⚠️ Failed to emit realtime message event for %s: %v", record.ID, err)
	}

	log.Printf("📋 Completed successfully - posted bot message %s", record.ID)
	return record, nil
}
