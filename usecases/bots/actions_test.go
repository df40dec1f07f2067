package bots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"colloquium/models"
	"colloquium/services"
)

type actionProcessorFixture struct {
	manuscripts *services.MockManuscriptsService
	reviews     *services.MockReviewsService
	convos      *services.MockConversationsService
	decisions   *services.MockDecisionsService
	notifier    *services.MockDecisionNotifier
	processor   *ActionProcessor
}

func newActionProcessorFixture() *actionProcessorFixture {
	f := &actionProcessorFixture{
		manuscripts: new(services.MockManuscriptsService),
		reviews:     new(services.MockReviewsService),
		convos:      new(services.MockConversationsService),
		decisions:   new(services.MockDecisionsService),
		notifier:    new(services.MockDecisionNotifier),
	}
	f.processor = NewActionProcessor(f.manuscripts, f.reviews, f.convos, f.decisions, f.notifier)
	return f
}

func actionContext() models.ActionContext {
	return models.ActionContext{
		ManuscriptID:   "ms_1",
		ConversationID: "conv_orig",
		UserID:         "u_editor",
		BotID:          "bot-editorial",
	}
}

func TestProcessActionsFaultIsolation(t *testing.T) {
	f := newActionProcessorFixture()
	ctx := context.Background()

	f.reviews.On("AssignReviewer", mock.Anything, "ms_1", "u_rev", "u_editor", (*time.Time)(nil)).
		Return(&models.ReviewerAssignment{ID: "ra_1"}, nil)
	f.manuscripts.On("UpdateStatus", mock.Anything, "ms_1", models.ManuscriptStatusUnderReview).
		Return(&models.Manuscript{ID: "ms_1", Status: models.ManuscriptStatusUnderReview}, nil)

	actions := []models.BotAction{
		{Type: models.ActionAssignReviewer, Data: map[string]any{"reviewer_id": "u_rev"}},
		// malformed: no status field
		{Type: models.ActionUpdateManuscriptStatus, Data: map[string]any{}},
		{Type: models.ActionUpdateManuscriptStatus, Data: map[string]any{"status": "UNDER_REVIEW"}},
	}

	failures := f.processor.ProcessActions(ctx, actions, actionContext())

	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Index)
	assert.Equal(t, models.ActionUpdateManuscriptStatus, failures[0].Type)
	assert.Contains(t, failures[0].Reason, "status")

	// actions 1 and 3 were still applied
	f.reviews.AssertNumberOfCalls(t, "AssignReviewer", 1)
	f.manuscripts.AssertNumberOfCalls(t, "UpdateStatus", 1)
}

func TestProcessActionsConversationIDFlowsThroughBatch(t *testing.T) {
	f := newActionProcessorFixture()
	ctx := context.Background()

	f.convos.On("CreateConversation", mock.Anything, "ms_1", models.ConversationTypeRevision, "Revision discussion", []string{"u_editor"}, "u_editor").
		Return(&models.Conversation{ID: "conv_new", ManuscriptID: "ms_1"}, nil)
	f.decisions.On("RecordDecision", mock.Anything, "ms_1", models.DecisionOutcomeRevise, "needs work", "u_editor").
		Return(&models.EditorialDecision{ID: "ed_1", ManuscriptID: "ms_1", Outcome: models.DecisionOutcomeRevise}, nil)
	f.notifier.On("SendDecisionEmail", mock.Anything, mock.Anything).Return(nil)

	actions := []models.BotAction{
		{Type: models.ActionCreateConversation, Data: map[string]any{
			"type":            "revision",
			"title":           "Revision discussion",
			"participant_ids": []any{"u_editor"},
		}},
		{Type: models.ActionMakeEditorialDecision, Data: map[string]any{
			"outcome":  "revise",
			"comments": "needs work",
		}},
	}

	failures := f.processor.ProcessActions(ctx, actions, actionContext())
	assert.Empty(t, failures)

	// the decision handler saw the conversation created earlier in the
	// batch, so it did not open a second one
	f.convos.AssertNumberOfCalls(t, "CreateConversation", 1)
	f.decisions.AssertNumberOfCalls(t, "RecordDecision", 1)
}

func TestProcessActionsReviseWithoutConversationOpensOne(t *testing.T) {
	f := newActionProcessorFixture()
	ctx := context.Background()

	var order []string
	f.convos.On("CreateConversation", mock.Anything, "ms_1", models.ConversationTypeRevision, "Revision discussion", []string{"u_editor"}, "u_editor").
		Run(func(mock.Arguments) { order = append(order, "conversation") }).
		Return(&models.Conversation{ID: "conv_new"}, nil)
	f.decisions.On("RecordDecision", mock.Anything, "ms_1", models.DecisionOutcomeRevise, "", "u_editor").
		Run(func(mock.Arguments) { order = append(order, "decision") }).
		Return(&models.EditorialDecision{ID: "ed_1"}, nil)
	f.notifier.On("SendDecisionEmail", mock.Anything, mock.Anything).Return(nil)

	failures := f.processor.ProcessActions(ctx, []models.BotAction{
		{Type: models.ActionMakeEditorialDecision, Data: map[string]any{"outcome": "revise"}},
	}, actionContext())

	assert.Empty(t, failures)
	assert.Equal(t, []string{"conversation", "decision"}, order)
}

func TestProcessActionsDecisionEmailFailureIsNotFatal(t *testing.T) {
	f := newActionProcessorFixture()
	ctx := context.Background()

	f.decisions.On("RecordDecision", mock.Anything, "ms_1", models.DecisionOutcomeAccept, "", "u_editor").
		Return(&models.EditorialDecision{ID: "ed_1"}, nil)
	f.notifier.On("SendDecisionEmail", mock.Anything, mock.Anything).Return(assert.AnError)

	failures := f.processor.ProcessActions(ctx, []models.BotAction{
		{Type: models.ActionMakeEditorialDecision, Data: map[string]any{"outcome": "accept"}},
	}, actionContext())

	assert.Empty(t, failures)
}

func TestProcessActionsUnknownTypeReported(t *testing.T) {
	f := newActionProcessorFixture()

	failures := f.processor.ProcessActions(context.Background(), []models.BotAction{
		{Type: "TELEPORT_MANUSCRIPT", Data: map[string]any{}},
	}, actionContext())

	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Reason, "unknown action type")
}
