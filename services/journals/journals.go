package journals

import (
	"context"
	"fmt"

	"github.com/samber/mo"

	"colloquium/core"
	"colloquium/db"
	"colloquium/models"
)

type JournalsService struct {
	journalsRepo *db.PostgresJournalsRepository
}

func NewJournalsService(repo *db.PostgresJournalsRepository) *JournalsService {
	return &JournalsService{journalsRepo: repo}
}

// GetJournalByID returns the journal's current settings snapshot
func (s *JournalsService) GetJournalByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Journal], error) {
	if id == "" {
		return mo.None[*models.Journal](), fmt.Errorf("journal id cannot be empty")
	}

	journal, err := s.journalsRepo.GetJournalByID(ctx, id)
	if err != nil {
		if core.IsNotFoundError(err) {
			return mo.None[*models.Journal](), nil
		}
		return mo.None[*models.Journal](), fmt.Errorf("failed to get journal: %w", err)
	}

	return mo.Some(journal), nil
}
