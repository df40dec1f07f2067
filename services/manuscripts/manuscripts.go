package manuscripts

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/mo"

	"colloquium/core"
	"colloquium/db"
	"colloquium/models"
)

type ManuscriptsService struct {
	manuscriptsRepo *db.PostgresManuscriptsRepository
}

func NewManuscriptsService(repo *db.PostgresManuscriptsRepository) *ManuscriptsService {
	return &ManuscriptsService{manuscriptsRepo: repo}
}

func (s *ManuscriptsService) GetManuscriptByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Manuscript], error) {
	if !core.IsValidULID(id) {
		return mo.None[*models.Manuscript](), fmt.Errorf("manuscript id must be a valid ULID")
	}

	manuscript, err := s.manuscriptsRepo.GetManuscriptByID(ctx, id)
	if err != nil {
		if core.IsNotFoundError(err) {
			return mo.None[*models.Manuscript](), nil
		}
		return mo.None[*models.Manuscript](), fmt.Errorf("failed to get manuscript: %w", err)
	}

	return mo.Some(manuscript), nil
}

// UpdateStatus transitions the manuscript's status field. Transition
// legality is a workflow-layer concern and is deliberately not checked here.
func (s *ManuscriptsService) UpdateStatus(
	ctx context.Context,
	id string,
	status models.ManuscriptStatus,
) (*models.Manuscript, error) {
	log.Printf("📋 Starting to update manuscript %s status to %s", id, status)

	if status == "" {
		return nil, fmt.Errorf("status cannot be empty")
	}

	manuscript, err := s.manuscriptsRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update manuscript status: %w", err)
	}

	log.Printf("📋 Completed successfully - manuscript %s is now %s", id, status)
	return manuscript, nil
}

func (s *ManuscriptsService) AssignActionEditor(
	ctx context.Context,
	id, editorID string,
) (*models.Manuscript, error) {
	log.Printf("📋 Starting to assign action editor %s to manuscript %s", editorID, id)

	if editorID == "" {
		return nil, fmt.Errorf("editor_id cannot be empty")
	}

	manuscript, err := s.manuscriptsRepo.UpdateActionEditor(ctx, id, editorID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign action editor: %w", err)
	}

	log.Printf("📋 Completed successfully - manuscript %s action editor is %s", id, editorID)
	return manuscript, nil
}
