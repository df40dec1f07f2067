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

type PostgresReviewsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for reviewer_assignments table
var reviewerAssignmentsColumns = []string{
	"id",
	"manuscript_id",
	"reviewer_id",
	"assigned_by_id",
	"status",
	"due_date",
	"created_at",
	"updated_at",
}

// Column names for reviews table
var reviewsColumns = []string{
	"id",
	"assignment_id",
	"manuscript_id",
	"recommendation",
	"content",
	"created_at",
	"updated_at",
}

func NewPostgresReviewsRepository(db *sqlx.DB, schema string) *PostgresReviewsRepository {
	return &PostgresReviewsRepository{db: db, schema: schema}
}

func (r *PostgresReviewsRepository) UpsertReviewerAssignment(
	ctx context.Context,
	assignment *models.ReviewerAssignment,
) error {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(reviewerAssignmentsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.reviewer_assignments (
			id, manuscript_id, reviewer_id, assigned_by_id, status, due_date
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (manuscript_id, reviewer_id)
		DO UPDATE SET
			due_date = EXCLUDED.due_date,
			assigned_by_id = EXCLUDED.assigned_by_id,
			updated_at = NOW()
		RETURNING %s`, r.schema, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		assignment.ID,
		assignment.ManuscriptID,
		assignment.ReviewerID,
		assignment.AssignedByID,
		assignment.Status,
		assignment.DueDate,
	).StructScan(assignment)
	if err != nil {
		return fmt.Errorf("failed to upsert reviewer assignment: %w", err)
	}

	return nil
}

func (r *PostgresReviewsRepository) ListAssignmentsByManuscript(
	ctx context.Context,
	manuscriptID string,
) ([]*models.ReviewerAssignment, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(reviewerAssignmentsColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.reviewer_assignments
		WHERE manuscript_id = $1
		ORDER BY created_at ASC`, columnsStr, r.schema)

	var assignments []*models.ReviewerAssignment
	err := db.SelectContext(ctx, &assignments, query, manuscriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviewer assignments: %w", err)
	}

	return assignments, nil
}

func (r *PostgresReviewsRepository) GetAssignmentByID(
	ctx context.Context,
	id string,
) (*models.ReviewerAssignment, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(reviewerAssignmentsColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.reviewer_assignments
		WHERE id = $1`, columnsStr, r.schema)

	assignment := &models.ReviewerAssignment{}
	err := db.GetContext(ctx, assignment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reviewer assignment %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reviewer assignment: %w", err)
	}

	return assignment, nil
}

func (r *PostgresReviewsRepository) CreateReview(ctx context.Context, review *models.Review) error {
	db := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(reviewsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.reviews (
			id, assignment_id, manuscript_id, recommendation, content
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, r.schema, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		review.ID,
		review.AssignmentID,
		review.ManuscriptID,
		review.Recommendation,
		review.Content,
	).StructScan(review)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

func (r *PostgresReviewsRepository) UpdateAssignmentStatus(
	ctx context.Context,
	id string,
	status models.ReviewerAssignmentStatus,
) error {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE %s.reviewer_assignments
		SET status = $2, updated_at = NOW()
		WHERE id = $1`, r.schema)

	result, err := db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update reviewer assignment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("reviewer assignment %s: %w", id, core.ErrNotFound)
	}

	return nil
}
