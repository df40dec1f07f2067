package files

import (
	"context"
	"fmt"

	"github.com/samber/mo"

	"colloquium/core"
	"colloquium/db"
	"colloquium/models"
)

type FilesService struct {
	filesRepo *db.PostgresFilesRepository
}

func NewFilesService(repo *db.PostgresFilesRepository) *FilesService {
	return &FilesService{filesRepo: repo}
}

// ListFiles returns file metadata for a manuscript, without content
func (s *FilesService) ListFiles(
	ctx context.Context,
	manuscriptID string,
) ([]*models.ManuscriptFile, error) {
	if manuscriptID == "" {
		return nil, fmt.Errorf("manuscript id cannot be empty")
	}

	files, err := s.filesRepo.ListFilesByManuscript(ctx, manuscriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

// GetFileByID returns one file including its content
func (s *FilesService) GetFileByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.ManuscriptFile], error) {
	if !core.IsValidULID(id) {
		return mo.None[*models.ManuscriptFile](), fmt.Errorf("file id must be a valid ULID")
	}

	file, err := s.filesRepo.GetFileByID(ctx, id)
	if err != nil {
		if core.IsNotFoundError(err) {
			return mo.None[*models.ManuscriptFile](), nil
		}
		return mo.None[*models.ManuscriptFile](), fmt.Errorf("failed to get file: %w", err)
	}

	return mo.Some(file), nil
}
