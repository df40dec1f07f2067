package decisions

import (
	"context"
	"fmt"
	"log"

	"colloquium/core"
	"colloquium/db"
	"colloquium/models"
)

type DecisionsService struct {
	decisionsRepo *db.PostgresDecisionsRepository
}

func NewDecisionsService(repo *db.PostgresDecisionsRepository) *DecisionsService {
	return &DecisionsService{decisionsRepo: repo}
}

func (s *DecisionsService) RecordDecision(
	ctx context.Context,
	manuscriptID string,
	outcome models.DecisionOutcome,
	comments, decidedByID string,
) (*models.EditorialDecision, error) {
	log.Printf("📋 Starting to record %s decision for manuscript %s", outcome, manuscriptID)

	if manuscriptID == "" {
		return nil, fmt.Errorf("manuscript_id cannot be empty")
	}
	switch outcome {
	case models.DecisionOutcomeAccept, models.DecisionOutcomeReject, models.DecisionOutcomeRevise:
	default:
		return nil, fmt.Errorf("unknown decision outcome: %s", outcome)
	}

	decision := &models.EditorialDecision{
		ID:           core.NewID("dec"),
		ManuscriptID: manuscriptID,
		Outcome:      outcome,
		Comments:     comments,
		DecidedByID:  decidedByID,
	}

	if err := s.decisionsRepo.CreateDecision(ctx, decision); err != nil {
		return nil, fmt.Errorf("failed to record editorial decision: %w", err)
	}

	log.Printf("📋 Completed successfully - decision %s recorded", decision.ID)
	return decision, nil
}

// LoggingDecisionNotifier is the default DecisionNotifier: it records the
// outgoing decision email intent. Real delivery is wired in deployments that
// configure an email provider.
type LoggingDecisionNotifier struct{}

func NewLoggingDecisionNotifier() *LoggingDecisionNotifier {
	return &LoggingDecisionNotifier{}
}

func (n *LoggingDecisionNotifier) SendDecisionEmail(_ context.Context, decision *models.EditorialDecision) error {
	log.Printf("📧 Decision email queued for manuscript %s (%s)", decision.ManuscriptID, decision.Outcome)
	return nil
}
