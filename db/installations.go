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

type PostgresBotInstallationsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for bot_installations table
var botInstallationsColumns = []string{
	"id",
	"bot_id",
	"journal_id",
	"is_enabled",
	"is_default",
	"is_required",
	"config",
	"created_at",
	"updated_at",
}

func NewPostgresBotInstallationsRepository(db *sqlx.DB, schema string) *PostgresBotInstallationsRepository {
	return &PostgresBotInstallationsRepository{db: db, schema: schema}
}

func (r *PostgresBotInstallationsRepository) CreateInstallation(
	ctx context.Context,
	installation *models.BotInstallation,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(botInstallationsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.bot_installations (
			id, bot_id, journal_id, is_enabled, is_default, is_required, config
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (journal_id, bot_id)
		DO UPDATE SET
			is_enabled = EXCLUDED.is_enabled,
			config = EXCLUDED.config,
			updated_at = NOW()
		RETURNING %s`, r.schema, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		installation.ID,
		installation.BotID,
		installation.JournalID,
		installation.IsEnabled,
		installation.IsDefault,
		installation.IsRequired,
		installation.Config,
	).StructScan(installation)
	if err != nil {
		return fmt.Errorf("failed to create bot installation: %w", err)
	}

	return nil
}

func (r *PostgresBotInstallationsRepository) GetInstallationByBotID(
	ctx context.Context,
	journalID, botID string,
) (*models.BotInstallation, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(botInstallationsColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.bot_installations
		WHERE journal_id = $1 AND bot_id = $2`, columnsStr, r.schema)

	installation := &models.BotInstallation{}
	err := db.GetContext(ctx, installation, query, journalID, botID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bot installation for %s: %w", botID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bot installation: %w", err)
	}

	return installation, nil
}

func (r *PostgresBotInstallationsRepository) ListInstallations(
	ctx context.Context,
	journalID string,
) ([]*models.BotInstallation, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(botInstallationsColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.bot_installations
		WHERE journal_id = $1
		ORDER BY created_at ASC`, columnsStr, r.schema)

	var installations []*models.BotInstallation
	err := db.SelectContext(ctx, &installations, query, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bot installations: %w", err)
	}

	return installations, nil
}

// ListJournalIDs returns every journal with at least one installation.
// Used at startup to re-sync cron schedules after a restart.
func (r *PostgresBotInstallationsRepository) ListJournalIDs(ctx context.Context) ([]string, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT DISTINCT journal_id
		FROM %s.bot_installations
		ORDER BY journal_id ASC`, r.schema)

	var journalIDs []string
	if err := db.SelectContext(ctx, &journalIDs, query); err != nil {
		return nil, fmt.Errorf("failed to list journal ids: %w", err)
	}

	return journalIDs, nil
}

func (r *PostgresBotInstallationsRepository) UpdateEnabled(
	ctx context.Context,
	journalID, botID string,
	isEnabled bool,
) (*models.BotInstallation, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(botInstallationsColumns, ", ")

	query := fmt.Sprintf(`
		UPDATE %s.bot_installations
		SET is_enabled = $3, updated_at = NOW()
		WHERE journal_id = $1 AND bot_id = $2
		RETURNING %s`, r.schema, returningStr)

	installation := &models.BotInstallation{}
	err := db.QueryRowxContext(ctx, query, journalID, botID, isEnabled).StructScan(installation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bot installation for %s: %w", botID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update bot installation enabled flag: %w", err)
	}

	return installation, nil
}

func (r *PostgresBotInstallationsRepository) UpdateConfig(
	ctx context.Context,
	journalID, botID string,
	config models.JSONMap,
) (*models.BotInstallation, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(botInstallationsColumns, ", ")

	query := fmt.Sprintf(`
		UPDATE %s.bot_installations
		SET config = $3, updated_at = NOW()
		WHERE journal_id = $1 AND bot_id = $2
		RETURNING %s`, r.schema, returningStr)

	installation := &models.BotInstallation{}
	err := db.QueryRowxContext(ctx, query, journalID, botID, config).StructScan(installation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bot installation for %s: %w", botID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update bot installation config: %w", err)
	}

	return installation, nil
}
