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

type PostgresJournalsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for journals table
var journalsColumns = []string{
	"id",
	"name",
	"settings",
}

func NewPostgresJournalsRepository(db *sqlx.DB, schema string) *PostgresJournalsRepository {
	return &PostgresJournalsRepository{db: db, schema: schema}
}

// GetJournalByID returns a journal's settings snapshot as currently stored.
// Callers hand the snapshot to bots and must not write it back.
func (r *PostgresJournalsRepository) GetJournalByID(ctx context.Context, id string) (*models.Journal, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(journalsColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.journals
		WHERE id = $1`, columnsStr, r.schema)

	journal := &models.Journal{}
	err := db.GetContext(ctx, journal, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("journal %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get journal: %w", err)
	}

	return journal, nil
}
