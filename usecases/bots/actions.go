package bots

import (
	"context"
	"fmt"
	"log"
	"time"

	"colloquium/models"
	"colloquium/services"
)

// ActionProcessor applies the structured actions a bot emits against domain
// state. Processing is FIFO and best effort across the batch: each action is
// fault-isolated, and a failure is recorded and skipped rather than aborting
// the actions after it.
type ActionProcessor struct {
	manuscripts   services.ManuscriptsService
	reviews       services.ReviewsService
	conversations services.ConversationsService
	decisions     services.DecisionsService
	notifier      services.DecisionNotifier
}

func NewActionProcessor(
	manuscripts services.ManuscriptsService,
	reviews services.ReviewsService,
	conversations services.ConversationsService,
	decisions services.DecisionsService,
	notifier services.DecisionNotifier,
) *ActionProcessor {
	return &ActionProcessor{
		manuscripts:   manuscripts,
		reviews:       reviews,
		conversations: conversations,
		decisions:     decisions,
		notifier:      notifier,
	}
}

// ProcessActions applies a batch in the order the bot produced it. A
// CREATE_CONVERSATION earlier in the batch makes the new conversation id the
// ambient one for the actions after it. The returned failures carry the
// index and reason of every action that could not be applied.
func (p *ActionProcessor) ProcessActions(ctx context.Context, actions []models.BotAction, actx models.ActionContext) []models.ActionFailure {
	if len(actions) == 0 {
		return nil
	}
	log.Printf("📋 Processing %d actions from bot %s for manuscript %s", len(actions), actx.BotID, actx.ManuscriptID)

	var failures []models.ActionFailure
	// CREATE_CONVERSATION rewrites the ambient conversation id for the
	// actions that follow it in the same batch
	batch := &batchState{ActionContext: actx}

	for i, action := range actions {
		if err := p.applyAction(ctx, action, batch); err != nil {
			log.Printf("⚠️ Action %d (%s) from bot %s failed: %v", i, action.Type, actx.BotID, err)
			failures = append(failures, models.ActionFailure{
				Index:  i,
				Type:   action.Type,
				Reason: err.Error(),
			})
		}
	}

	if len(failures) > 0 {
		log.Printf("⚠️ Applied %d/%d actions from bot %s", len(actions)-len(failures), len(actions), actx.BotID)
	} else {
		log.Printf("✅ Applied all %d actions from bot %s", len(actions), actx.BotID)
	}
	return failures
}

// batchState threads per-batch results (a conversation created mid-batch)
// into the actions after them
type batchState struct {
	models.ActionContext
	createdConversation bool
}

func (p *ActionProcessor) applyAction(ctx context.Context, action models.BotAction, batchCtx *batchState) error {
	switch action.Type {
	case models.ActionAssignReviewer:
		return p.applyAssignReviewer(ctx, action.Data, batchCtx)
	case models.ActionUpdateManuscriptStatus:
		return p.applyUpdateStatus(ctx, action.Data, batchCtx)
	case models.ActionCreateConversation:
		return p.applyCreateConversation(ctx, action.Data, batchCtx)
	case models.ActionRespondToReview, models.ActionSubmitReview:
		return p.applySubmitReview(ctx, action.Data)
	case models.ActionMakeEditorialDecision:
		return p.applyEditorialDecision(ctx, action.Data, batchCtx)
	case models.ActionAssignActionEditor:
		return p.applyAssignActionEditor(ctx, action.Data, batchCtx)
	case models.ActionExecutePublicationFlow:
		return p.applyPublicationWorkflow(ctx, action.Data, batchCtx)
	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

func (p *ActionProcessor) applyAssignReviewer(ctx context.Context, data map[string]any, batchCtx *batchState) error {
	reviewerID, err := stringField(data, "reviewer_id")
	if err != nil {
		return err
	}

	var dueDate *time.Time
	if raw, ok := data["due_date"].(string); ok && raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("due_date must be RFC 3339, got %q", raw)
		}
		dueDate = &parsed
	}

	_, err = p.reviews.AssignReviewer(ctx, batchCtx.ManuscriptID, reviewerID, batchCtx.UserID, dueDate)
	return err
}

func (p *ActionProcessor) applyUpdateStatus(ctx context.Context, data map[string]any, batchCtx *batchState) error {
	status, err := stringField(data, "status")
	if err != nil {
		return err
	}
	// Transition legality is a workflow-layer concern; the status is
	// applied as given.
	_, err = p.manuscripts.UpdateStatus(ctx, batchCtx.ManuscriptID, models.ManuscriptStatus(status))
	return err
}

func (p *ActionProcessor) applyCreateConversation(ctx context.Context, data map[string]any, batchCtx *batchState) error {
	conversationType, err := stringField(data, "type")
	if err != nil {
		return err
	}
	title, _ := data["title"].(string)

	participantIDs := stringSliceField(data, "participant_ids")
	if len(participantIDs) == 0 {
		participantIDs = []string{batchCtx.UserID}
	}

	conversation, err := p.conversations.CreateConversation(
		ctx,
		batchCtx.ManuscriptID,
		models.ConversationType(conversationType),
		title,
		participantIDs,
		batchCtx.UserID,
	)
	if err != nil {
		return err
	}

	batchCtx.ConversationID = conversation.ID
	batchCtx.createdConversation = true
	return nil
}

func (p *ActionProcessor) applySubmitReview(ctx context.Context, data map[string]any) error {
	assignmentID, err := stringField(data, "assignment_id")
	if err != nil {
		return err
	}
	recommendation, err := stringField(data, "recommendation")
	if err != nil {
		return err
	}
	content, _ := data["content"].(string)

	_, err = p.reviews.SubmitReview(ctx, assignmentID, recommendation, content)
	return err
}

func (p *ActionProcessor) applyEditorialDecision(ctx context.Context, data map[string]any, batchCtx *batchState) error {
	outcome, err := stringField(data, "outcome")
	if err != nil {
		return err
	}
	comments, _ := data["comments"].(string)

	// A revision decision needs a venue for the revision discussion. If the
	// batch already created a conversation, that one serves; otherwise open
	// one here.
	if models.DecisionOutcome(outcome) == models.DecisionOutcomeRevise && !batchCtx.createdConversation {
		conversation, err := p.conversations.CreateConversation(
			ctx,
			batchCtx.ManuscriptID,
			models.ConversationTypeRevision,
			"Revision discussion",
			[]string{batchCtx.UserID},
			batchCtx.UserID,
		)
		if err != nil {
			return fmt.Errorf("failed to open revision conversation: %w", err)
		}
		batchCtx.ConversationID = conversation.ID
		batchCtx.createdConversation = true
	}

	decision, err := p.decisions.RecordDecision(ctx, batchCtx.ManuscriptID, models.DecisionOutcome(outcome), comments, batchCtx.UserID)
	if err != nil {
		return err
	}

	if err := p.notifier.SendDecisionEmail(ctx, decision); err != nil {
		// the decision of record stands; notification is best effort
		log.Printf("⚠️ Failed to send decision email for manuscript %s: %v", batchCtx.ManuscriptID, err)
	}
	return nil
}

func (p *ActionProcessor) applyAssignActionEditor(ctx context.Context, data map[string]any, batchCtx *batchState) error {
	editorID, err := stringField(data, "editor_id")
	if err != nil {
		return err
	}
	_, err = p.manuscripts.AssignActionEditor(ctx, batchCtx.ManuscriptID, editorID)
	return err
}

func (p *ActionProcessor) applyPublicationWorkflow(ctx context.Context, data map[string]any, batchCtx *batchState) error {
	workflow, err := stringField(data, "workflow")
	if err != nil {
		return err
	}
	switch workflow {
	case "publish":
		_, err := p.manuscripts.UpdateStatus(ctx, batchCtx.ManuscriptID, models.ManuscriptStatusPublished)
		return err
	default:
		return fmt.Errorf("unknown publication workflow %q", workflow)
	}
}

func stringField(data map[string]any, key string) (string, error) {
	value, ok := data[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("action data missing required field %q", key)
	}
	return value, nil
}

func stringSliceField(data map[string]any, key string) []string {
	switch raw := data[key].(type) {
	case []string:
		return raw
	case []any:
		var values []string
		for _, item := range raw {
			if s, ok := item.(string); ok && s != "" {
				values = append(values, s)
			}
		}
		return values
	default:
		return nil
	}
}
