package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"colloquium/core"
	dbtx "colloquium/db/tx"
	"colloquium/models"
)

type PostgresConversationsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for conversations table
var conversationsColumns = []string{
	"id",
	"manuscript_id",
	"type",
	"title",
	"participant_ids",
	"created_by_id",
	"created_at",
	"updated_at",
}

// Column names for conversation_messages table
var conversationMessagesColumns = []string{
	"id",
	"conversation_id",
	"author_user_id",
	"author_bot_id",
	"reply_to_id",
	"content",
	"metadata",
	"created_at",
}

func NewPostgresConversationsRepository(db *sqlx.DB, schema string) *PostgresConversationsRepository {
	return &PostgresConversationsRepository{db: db, schema: schema}
}

func (r *PostgresConversationsRepository) CreateConversation(
	ctx context.Context,
	conversation *models.Conversation,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(conversationsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.conversations (
			id, manuscript_id, type, title, participant_ids, created_by_id
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, r.schema, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		conversation.ID,
		conversation.ManuscriptID,
		conversation.Type,
		conversation.Title,
		conversation.ParticipantIDs,
		conversation.CreatedByID,
	).StructScan(conversation)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

func (r *PostgresConversationsRepository) GetConversationByID(
	ctx context.Context,
	id string,
) (*models.Conversation, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(conversationsColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.conversations
		WHERE id = $1`, columnsStr, r.schema)

	conversation := &models.Conversation{}
	err := db.GetContext(ctx, conversation, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return conversation, nil
}

func (r *PostgresConversationsRepository) ListParticipants(
	ctx context.Context,
	conversationID string,
) ([]*models.Participant, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT u.id AS user_id, u.handle, u.display_name, cp.role
		FROM %s.conversation_participants cp
		JOIN %s.users u ON u.id = cp.user_id
		WHERE cp.conversation_id = $1
		ORDER BY u.handle ASC`, r.schema, r.schema)

	var participants []*models.Participant
	err := db.SelectContext(ctx, &participants, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation participants: %w", err)
	}

	return participants, nil
}

func (r *PostgresConversationsRepository) CreateMessage(
	ctx context.Context,
	message *models.ConversationMessage,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(conversationMessagesColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.conversation_messages (
			id, conversation_id, author_user_id, author_bot_id, reply_to_id, content, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, r.schema, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		message.ID,
		message.ConversationID,
		message.AuthorUserID,
		message.AuthorBotID,
		message.ReplyToID,
		message.Content,
		message.Metadata,
	).StructScan(message)
	if err != nil {
		return fmt.Errorf("failed to create conversation message: %w", err)
	}

	return nil
}
