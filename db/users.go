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

type PostgresUsersRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for users table
var usersColumns = []string{
	"id",
	"handle",
	"display_name",
	"email",
	"auth_provider",
	"auth_provider_id",
	"created_at",
	"updated_at",
}

func NewPostgresUsersRepository(db *sqlx.DB, schema string) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db, schema: schema}
}

func (r *PostgresUsersRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(usersColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.users
		WHERE id = $1`, columnsStr, r.schema)

	user := &models.User{}
	err := db.GetContext(ctx, user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (r *PostgresUsersRepository) GetUserByAuthProviderID(
	ctx context.Context,
	authProvider, authProviderID string,
) (*models.User, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(usersColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.users
		WHERE auth_provider = $1 AND auth_provider_id = $2`, columnsStr, r.schema)

	user := &models.User{}
	err := db.GetContext(ctx, user, query, authProvider, authProviderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s/%s: %w", authProvider, authProviderID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by auth provider: %w", err)
	}

	return user, nil
}

func (r *PostgresUsersRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(usersColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.users (id, handle, display_name, email, auth_provider, auth_provider_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, r.schema, returningStr)

	created := &models.User{}
	err := db.QueryRowxContext(
		ctx, query,
		user.ID, user.Handle, user.DisplayName, user.Email, user.AuthProvider, user.AuthProviderID,
	).StructScan(created)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

// SearchUsers matches handle or display name, case-insensitively
func (r *PostgresUsersRepository) SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(usersColumns, ", ")

	sqlQuery := fmt.Sprintf(`
		SELECT %s
		FROM %s.users
		WHERE handle ILIKE $1 OR display_name ILIKE $1
		ORDER BY handle
		LIMIT $2`, columnsStr, r.schema)

	users := []*models.User{}
	err := db.SelectContext(ctx, &users, sqlQuery, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return users, nil
}
