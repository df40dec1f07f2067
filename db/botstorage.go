package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"colloquium/core"
	dbtx "colloquium/db/tx"
)

// PostgresBotStorageRepository backs the bot SDK's key-value store. Entries
// are scoped to (bot_id, manuscript_id) so bots can never read each other's
// state or leak state across manuscripts.
type PostgresBotStorageRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresBotStorageRepository(db *sqlx.DB, schema string) *PostgresBotStorageRepository {
	return &PostgresBotStorageRepository{db: db, schema: schema}
}

func (r *PostgresBotStorageRepository) Set(
	ctx context.Context,
	botID, manuscriptID, key string,
	value []byte,
) error {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		INSERT INTO %s.bot_storage (id, bot_id, manuscript_id, key, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bot_id, manuscript_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, r.schema)

	if _, err := db.ExecContext(ctx, query, core.NewID("bkv"), botID, manuscriptID, key, value); err != nil {
		return fmt.Errorf("failed to set bot storage entry: %w", err)
	}

	return nil
}

func (r *PostgresBotStorageRepository) Get(
	ctx context.Context,
	botID, manuscriptID, key string,
) ([]byte, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT value
		FROM %s.bot_storage
		WHERE bot_id = $1 AND manuscript_id = $2 AND key = $3`, r.schema)

	var value []byte
	err := db.GetContext(ctx, &value, query, botID, manuscriptID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bot storage key %s: %w", key, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bot storage entry: %w", err)
	}

	return value, nil
}

func (r *PostgresBotStorageRepository) Delete(
	ctx context.Context,
	botID, manuscriptID, key string,
) error {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		DELETE FROM %s.bot_storage
		WHERE bot_id = $1 AND manuscript_id = $2 AND key = $3`, r.schema)

	if _, err := db.ExecContext(ctx, query, botID, manuscriptID, key); err != nil {
		return fmt.Errorf("failed to delete bot storage entry: %w", err)
	}

	return nil
}

func (r *PostgresBotStorageRepository) ListKeys(
	ctx context.Context,
	botID, manuscriptID string,
) ([]string, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT key
		FROM %s.bot_storage
		WHERE bot_id = $1 AND manuscript_id = $2
		ORDER BY key ASC`, r.schema)

	var keys []string
	err := db.SelectContext(ctx, &keys, query, botID, manuscriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bot storage keys: %w", err)
	}

	return keys, nil
}
