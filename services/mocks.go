package services

import (
	"context"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"colloquium/models"
)

// MockBotInstallationsService is a mock implementation of BotInstallationsService
type MockBotInstallationsService struct {
	mock.Mock
}

func (m *MockBotInstallationsService) InstallBot(
	ctx context.Context,
	journalID, botID string,
	initialConfig models.JSONMap,
) (*models.BotInstallation, error) {
	args := m.Called(ctx, journalID, botID, initialConfig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BotInstallation), args.Error(1)
}

func (m *MockBotInstallationsService) UninstallBot(ctx context.Context, journalID, botID string) error {
	args := m.Called(ctx, journalID, botID)
	return args.Error(0)
}

func (m *MockBotInstallationsService) SetEnabled(
	ctx context.Context,
	journalID, botID string,
	enabled bool,
) (*models.BotInstallation, error) {
	args := m.Called(ctx, journalID, botID, enabled)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BotInstallation), args.Error(1)
}

func (m *MockBotInstallationsService) UpdateConfig(
	ctx context.Context,
	journalID, botID string,
	config models.JSONMap,
) (*models.BotInstallation, error) {
	args := m.Called(ctx, journalID, botID, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BotInstallation), args.Error(1)
}

func (m *MockBotInstallationsService) GetInstallation(
	ctx context.Context,
	journalID, botID string,
) (mo.Option[*models.BotInstallation], error) {
	args := m.Called(ctx, journalID, botID)
	return args.Get(0).(mo.Option[*models.BotInstallation]), args.Error(1)
}

func (m *MockBotInstallationsService) ListInstallations(
	ctx context.Context,
	journalID string,
) ([]*models.BotInstallation, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BotInstallation), args.Error(1)
}

// MockUsersService is a mock implementation of UsersService
type MockUsersService struct {
	mock.Mock
}

func (m *MockUsersService) GetOrCreateUser(
	ctx context.Context,
	authProvider, authProviderID string,
) (*models.User, error) {
	args := m.Called(ctx, authProvider, authProviderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUsersService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUsersService) SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// MockJournalsService is a mock implementation of JournalsService
type MockJournalsService struct {
	mock.Mock
}

func (m *MockJournalsService) GetJournalByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Journal], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Journal]), args.Error(1)
}

// MockMentionsService is a mock implementation of MentionsService
type MockMentionsService struct {
	mock.Mock
}

func (m *MockMentionsService) ResolveMentions(
	ctx context.Context,
	content, conversationID string,
) ([]*models.ResolvedMention, error) {
	args := m.Called(ctx, content, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ResolvedMention), args.Error(1)
}

// MockManuscriptsService is a mock implementation of ManuscriptsService
type MockManuscriptsService struct {
	mock.Mock
}

func (m *MockManuscriptsService) GetManuscriptByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Manuscript], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Manuscript]), args.Error(1)
}

func (m *MockManuscriptsService) UpdateStatus(
	ctx context.Context,
	id string,
	status models.ManuscriptStatus,
) (*models.Manuscript, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Manuscript), args.Error(1)
}

func (m *MockManuscriptsService) AssignActionEditor(
	ctx context.Context,
	id, editorID string,
) (*models.Manuscript, error) {
	args := m.Called(ctx, id, editorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Manuscript), args.Error(1)
}

// MockReviewsService is a mock implementation of ReviewsService
type MockReviewsService struct {
	mock.Mock
}

func (m *MockReviewsService) AssignReviewer(
	ctx context.Context,
	manuscriptID, reviewerID, assignedByID string,
	dueDate *time.Time,
) (*models.ReviewerAssignment, error) {
	args := m.Called(ctx, manuscriptID, reviewerID, assignedByID, dueDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewerAssignment), args.Error(1)
}

func (m *MockReviewsService) ListAssignments(
	ctx context.Context,
	manuscriptID string,
) ([]*models.ReviewerAssignment, error) {
	args := m.Called(ctx, manuscriptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReviewerAssignment), args.Error(1)
}

func (m *MockReviewsService) GetAssignmentByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.ReviewerAssignment], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.ReviewerAssignment]), args.Error(1)
}

func (m *MockReviewsService) SubmitReview(
	ctx context.Context,
	assignmentID, recommendation, content string,
) (*models.Review, error) {
	args := m.Called(ctx, assignmentID, recommendation, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

// MockConversationsService is a mock implementation of ConversationsService
type MockConversationsService struct {
	mock.Mock
}

func (m *MockConversationsService) CreateConversation(
	ctx context.Context,
	manuscriptID string,
	conversationType models.ConversationType,
	title string,
	participantIDs []string,
	createdByID string,
) (*models.Conversation, error) {
	args := m.Called(ctx, manuscriptID, conversationType, title, participantIDs, createdByID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockConversationsService) GetConversationByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Conversation], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Conversation]), args.Error(1)
}

func (m *MockConversationsService) ListParticipants(
	ctx context.Context,
	conversationID string,
) ([]*models.Participant, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Participant), args.Error(1)
}

func (m *MockConversationsService) PostBotMessage(
	ctx context.Context,
	conversationID, botID string,
	message models.BotMessage,
) (*models.ConversationMessage, error) {
	args := m.Called(ctx, conversationID, botID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConversationMessage), args.Error(1)
}

// MockDecisionsService is a mock implementation of DecisionsService
type MockDecisionsService struct {
	mock.Mock
}

func (m *MockDecisionsService) RecordDecision(
	ctx context.Context,
	manuscriptID string,
	outcome models.DecisionOutcome,
	comments, decidedByID string,
) (*models.EditorialDecision, error) {
	args := m.Called(ctx, manuscriptID, outcome, comments, decidedByID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EditorialDecision), args.Error(1)
}

// MockDecisionNotifier is a mock implementation of DecisionNotifier
type MockDecisionNotifier struct {
	mock.Mock
}

func (m *MockDecisionNotifier) SendDecisionEmail(ctx context.Context, decision *models.EditorialDecision) error {
	args := m.Called(ctx, decision)
	return args.Error(0)
}

// MockFilesService is a mock implementation of FilesService
type MockFilesService struct {
	mock.Mock
}

func (m *MockFilesService) ListFiles(
	ctx context.Context,
	manuscriptID string,
) ([]*models.ManuscriptFile, error) {
	args := m.Called(ctx, manuscriptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ManuscriptFile), args.Error(1)
}

func (m *MockFilesService) GetFileByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.ManuscriptFile], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.ManuscriptFile]), args.Error(1)
}

// MockRealtimeNotifier is a mock implementation of RealtimeNotifier
type MockRealtimeNotifier struct {
	mock.Mock
}

func (m *MockRealtimeNotifier) EmitMessageCreated(conversationID string, message *models.ConversationMessage) error {
	args := m.Called(conversationID, message)
	return args.Error(0)
}

// TestTransactionManager is a TransactionManager for tests: it runs the
// wrapped function directly and counts invocations
type TestTransactionManager struct {
	Transactions int
}

func (m *TestTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Transactions++
	return fn(ctx)
}
