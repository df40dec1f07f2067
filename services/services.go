package services

import (
	"context"
	"time"

	"github.com/samber/mo"

	"colloquium/models"
)

// TransactionManager defines the interface for managing database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// BotRegistryService is the in-memory mapping from bot id to definition.
// Registration is last-wins on duplicate ids so plugins can be hot-reloaded
// without an explicit unregister step.
type BotRegistryService interface {
	Register(bot *models.BotDefinition)
	GetBot(botID string) mo.Option[*models.BotDefinition]
	ListBots() []*models.BotDefinition
	KnownBotIDs() []string
}

// BotInstallationsService tracks which bots are installed, enabled and
// configured for a journal. It is the single source of truth the executor
// consults before permitting an invocation.
type BotInstallationsService interface {
	InstallBot(
		ctx context.Context,
		journalID, botID string,
		initialConfig models.JSONMap,
	) (*models.BotInstallation, error)
	UninstallBot(ctx context.Context, journalID, botID string) error
	SetEnabled(ctx context.Context, journalID, botID string, enabled bool) (*models.BotInstallation, error)
	UpdateConfig(
		ctx context.Context,
		journalID, botID string,
		config models.JSONMap,
	) (*models.BotInstallation, error)
	GetInstallation(ctx context.Context, journalID, botID string) (mo.Option[*models.BotInstallation], error)
	ListInstallations(ctx context.Context, journalID string) ([]*models.BotInstallation, error)
}

// UsersService resolves authenticated identities and user records
type UsersService interface {
	GetOrCreateUser(ctx context.Context, authProvider, authProviderID string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error)
}

// MentionsService resolves @tokens in message content against the bot
// registry and a conversation's participant list
type MentionsService interface {
	ResolveMentions(ctx context.Context, content, conversationID string) ([]*models.ResolvedMention, error)
}

// JournalsService serves journal settings snapshots for execution contexts
type JournalsService interface {
	GetJournalByID(ctx context.Context, id string) (mo.Option[*models.Journal], error)
}

// ManuscriptsService defines the interface for manuscript-related operations
type ManuscriptsService interface {
	GetManuscriptByID(ctx context.Context, id string) (mo.Option[*models.Manuscript], error)
	UpdateStatus(ctx context.Context, id string, status models.ManuscriptStatus) (*models.Manuscript, error)
	AssignActionEditor(ctx context.Context, id, editorID string) (*models.Manuscript, error)
}

// FilesService serves manuscript file metadata and content
type FilesService interface {
	ListFiles(ctx context.Context, manuscriptID string) ([]*models.ManuscriptFile, error)
	GetFileByID(ctx context.Context, id string) (mo.Option[*models.ManuscriptFile], error)
}

// ReviewsService defines the interface for reviewer assignment and review operations
type ReviewsService interface {
	AssignReviewer(
		ctx context.Context,
		manuscriptID, reviewerID, assignedByID string,
		dueDate *time.Time,
	) (*models.ReviewerAssignment, error)
	ListAssignments(ctx context.Context, manuscriptID string) ([]*models.ReviewerAssignment, error)
	GetAssignmentByID(ctx context.Context, id string) (mo.Option[*models.ReviewerAssignment], error)
	SubmitReview(
		ctx context.Context,
		assignmentID, recommendation, content string,
	) (*models.Review, error)
}

// ConversationsService defines the interface for conversation operations
type ConversationsService interface {
	CreateConversation(
		ctx context.Context,
		manuscriptID string,
		conversationType models.ConversationType,
		title string,
		participantIDs []string,
		createdByID string,
	) (*models.Conversation, error)
	GetConversationByID(ctx context.Context, id string) (mo.Option[*models.Conversation], error)
	ListParticipants(ctx context.Context, conversationID string) ([]*models.Participant, error)
	PostBotMessage(
		ctx context.Context,
		conversationID, botID string,
		message models.BotMessage,
	) (*models.ConversationMessage, error)
}

// DecisionsService records editorial decisions of record
type DecisionsService interface {
	RecordDecision(
		ctx context.Context,
		manuscriptID string,
		outcome models.DecisionOutcome,
		comments, decidedByID string,
	) (*models.EditorialDecision, error)
}

// DecisionNotifier is the decision-email collaborator. Sending is a side
// effect external to the action processor; failures are logged, not fatal.
type DecisionNotifier interface {
	SendDecisionEmail(ctx context.Context, decision *models.EditorialDecision) error
}

// RealtimeNotifier pushes conversation events to connected clients
type RealtimeNotifier interface {
	EmitMessageCreated(conversationID string, message *models.ConversationMessage) error
}
