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

type PostgresManuscriptsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for manuscripts table
var manuscriptsColumns = []string{
	"id",
	"journal_id",
	"title",
	"abstract",
	"status",
	"author_id",
	"action_editor_id",
	"created_at",
	"updated_at",
}

func NewPostgresManuscriptsRepository(db *sqlx.DB, schema string) *PostgresManuscriptsRepository {
	return &PostgresManuscriptsRepository{db: db, schema: schema}
}

func (r *PostgresManuscriptsRepository) GetManuscriptByID(
	ctx context.Context,
	id string,
) (*models.Manuscript, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(manuscriptsColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.manuscripts
		WHERE id = $1`, columnsStr, r.schema)

	manuscript := &models.Manuscript{}
	err := db.GetContext(ctx, manuscript, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("manuscript %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get manuscript: %w", err)
	}

	return manuscript, nil
}

func (r *PostgresManuscriptsRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status models.ManuscriptStatus,
) (*models.Manuscript, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(manuscriptsColumns, ", ")

	query := fmt.Sprintf(`
		UPDATE %s.manuscripts
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, r.schema, returningStr)

	manuscript := &models.Manuscript{}
	err := db.QueryRowxContext(ctx, query, id, status).StructScan(manuscript)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("manuscript %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update manuscript status: %w", err)
	}

	return manuscript, nil
}

func (r *PostgresManuscriptsRepository) UpdateActionEditor(
	ctx context.Context,
	id, editorID string,
) (*models.Manuscript, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(manuscriptsColumns, ", ")

	query := fmt.Sprintf(`
		UPDATE %s.manuscripts
		SET action_editor_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, r.schema, returningStr)

	manuscript := &models.Manuscript{}
	err := db.QueryRowxContext(ctx, query, id, editorID).StructScan(manuscript)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("manuscript %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update manuscript action editor: %w", err)
	}

	return manuscript, nil
}
