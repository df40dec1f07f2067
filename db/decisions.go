package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	dbtx "colloquium/db/tx"
	"colloquium/models"
)

type PostgresDecisionsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for editorial_decisions table
var editorialDecisionsColumns = []string{
	"id",
	"manuscript_id",
	"outcome",
	"comments",
	"decided_by_id",
	"created_at",
}

func NewPostgresDecisionsRepository(db *sqlx.DB, schema string) *PostgresDecisionsRepository {
	return &PostgresDecisionsRepository{db: db, schema: schema}
}

func (r *PostgresDecisionsRepository) CreateDecision(
	ctx context.Context,
	decision *models.EditorialDecision,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(editorialDecisionsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.editorial_decisions (
			id, manuscript_id, outcome, comments, decided_by_id
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, r.schema, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		decision.ID,
		decision.ManuscriptID,
		decision.Outcome,
		decision.Comments,
		decision.DecidedByID,
	).StructScan(decision)
	if err != nil {
		return fmt.Errorf("failed to create editorial decision: %w", err)
	}

	return nil
}

func (r *PostgresDecisionsRepository) ListDecisionsByManuscript(
	ctx context.Context,
	manuscriptID string,
) ([]*models.EditorialDecision, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(editorialDecisionsColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.editorial_decisions
		WHERE manuscript_id = $1
		ORDER BY created_at ASC`, columnsStr, r.schema)

	var decisions []*models.EditorialDecision
	err := db.SelectContext(ctx, &decisions, query, manuscriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list editorial decisions: %w", err)
	}

	return decisions, nil
}
