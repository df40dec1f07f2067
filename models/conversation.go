package models

import (
	"time"

	"github.com/lib/pq"
)

// ConversationType categorizes a manuscript conversation
type ConversationType string

const (
	ConversationTypeGeneral  ConversationType = "general"
	ConversationTypeReview   ConversationType = "review"
	ConversationTypeRevision ConversationType = "revision"
	ConversationTypeDecision ConversationType = "decision"
)

// Conversation is a chat-style discussion scoped to a manuscript
type Conversation struct {
	ID             string           `json:"id"              db:"id"`
	ManuscriptID   string           `json:"manuscript_id"   db:"manuscript_id"`
	Type           ConversationType `json:"type"            db:"type"`
	Title          string           `json:"title"           db:"title"`
	ParticipantIDs pq.StringArray   `json:"participant_ids" db:"participant_ids"`
	CreatedByID    string           `json:"created_by_id"   db:"created_by_id"`
	CreatedAt      time.Time        `json:"created_at"      db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"      db:"updated_at"`
}

// ConversationMessage is one message within a conversation. Exactly one of
// AuthorUserID / AuthorBotID is set.
type ConversationMessage struct {
	ID             string    `json:"id"              db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	AuthorUserID   *string   `json:"author_user_id"  db:"author_user_id"`
	AuthorBotID    *string   `json:"author_bot_id"   db:"author_bot_id"`
	ReplyToID      *string   `json:"reply_to_id"     db:"reply_to_id"`
	Content        string    `json:"content"         db:"content"`
	Metadata       JSONMap   `json:"metadata"        db:"metadata"`
	CreatedAt      time.Time `json:"created_at"      db:"created_at"`
}
