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

type PostgresFilesRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for manuscript_files table. Content is excluded from
// listings; files can be large and listings only need metadata.
var filesMetadataColumns = []string{
	"id",
	"manuscript_id",
	"name",
	"content_type",
	"size",
	"created_at",
}

func NewPostgresFilesRepository(db *sqlx.DB, schema string) *PostgresFilesRepository {
	return &PostgresFilesRepository{db: db, schema: schema}
}

func (r *PostgresFilesRepository) CreateFile(ctx context.Context, file *models.ManuscriptFile) error {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		INSERT INTO %s.manuscript_files (id, manuscript_id, name, content_type, size, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`, r.schema)

	err := db.QueryRowxContext(
		ctx,
		query,
		file.ID,
		file.ManuscriptID,
		file.Name,
		file.ContentType,
		file.Size,
		file.Content,
	).Scan(&file.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create manuscript file: %w", err)
	}

	return nil
}

func (r *PostgresFilesRepository) ListFilesByManuscript(
	ctx context.Context,
	manuscriptID string,
) ([]*models.ManuscriptFile, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(filesMetadataColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.manuscript_files
		WHERE manuscript_id = $1
		ORDER BY created_at ASC`, columnsStr, r.schema)

	var files []*models.ManuscriptFile
	if err := db.SelectContext(ctx, &files, query, manuscriptID); err != nil {
		return nil, fmt.Errorf("failed to list manuscript files: %w", err)
	}

	return files, nil
}

func (r *PostgresFilesRepository) GetFileByID(
	ctx context.Context,
	id string,
) (*models.ManuscriptFile, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(filesMetadataColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s, content
		FROM %s.manuscript_files
		WHERE id = $1`, columnsStr, r.schema)

	var file models.ManuscriptFile
	err := db.GetContext(ctx, &file, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("manuscript file %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get manuscript file: %w", err)
	}

	return &file, nil
}
