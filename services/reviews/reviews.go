package reviews

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/samber/mo"

	"colloquium/core"
	"colloquium/db"
	"colloquium/models"
	"colloquium/services"
)

type ReviewsService struct {
	reviewsRepo *db.PostgresReviewsRepository
	txManager   services.TransactionManager
}

func NewReviewsService(repo *db.PostgresReviewsRepository, txManager services.TransactionManager) *ReviewsService {
	return &ReviewsService{reviewsRepo: repo, txManager: txManager}
}

func (s *ReviewsService) AssignReviewer(
	ctx context.Context,
	manuscriptID, reviewerID, assignedByID string,
	dueDate *time.Time,
) (*models.ReviewerAssignment, error) {
	log.Printf("📋 Starting to assign reviewer %s to manuscript %s", reviewerID, manuscriptID)

	if reviewerID == "" {
		return nil, fmt.Errorf("reviewer_id cannot be empty")
	}
	if manuscriptID == "" {
		return nil, fmt.Errorf("manuscript_id cannot be empty")
	}

	assignment := &models.ReviewerAssignment{
		ID:           core.NewID("ra"),
		ManuscriptID: manuscriptID,
		ReviewerID:   reviewerID,
		AssignedByID: assignedByID,
		Status:       models.ReviewerAssignmentStatusPending,
		DueDate:      dueDate,
	}

	if err := s.reviewsRepo.UpsertReviewerAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to assign reviewer: %w", err)
	}

	log.Printf("📋 Completed successfully - reviewer assignment %s", assignment.ID)
	return assignment, nil
}

func (s *ReviewsService) ListAssignments(
	ctx context.Context,
	manuscriptID string,
) ([]*models.ReviewerAssignment, error) {
	assignments, err := s.reviewsRepo.ListAssignmentsByManuscript(ctx, manuscriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviewer assignments: %w", err)
	}

	return assignments, nil
}

func (s *ReviewsService) GetAssignmentByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.ReviewerAssignment], error) {
	assignment, err := s.reviewsRepo.GetAssignmentByID(ctx, id)
	if err != nil {
		if core.IsNotFoundError(err) {
			return mo.None[*models.ReviewerAssignment](), nil
		}
		return mo.None[*models.ReviewerAssignment](), fmt.Errorf("failed to get reviewer assignment: %w", err)
	}

	return mo.Some(assignment), nil
}

// SubmitReview records reviewer feedback and marks the assignment completed,
// atomically.
func (s *ReviewsService) SubmitReview(
	ctx context.Context,
	assignmentID, recommendation, content string,
) (*models.Review, error) {
	log.Printf("📋 Starting to submit review for assignment %s", assignmentID)

	if assignmentID == "" {
		return nil, fmt.Errorf("assignment_id cannot be empty")
	}
	if content == "" {
		return nil, fmt.Errorf("review content cannot be empty")
	}

	assignment, err := s.reviewsRepo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviewer assignment: %w", err)
	}

	review := &models.Review{
		ID:             core.NewID("rev"),
		AssignmentID:   assignment.ID,
		ManuscriptID:   assignment.ManuscriptID,
		Recommendation: recommendation,
		Content:        content,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.reviewsRepo.CreateReview(txCtx, review); err != nil {
			return err
		}
		return s.reviewsRepo.UpdateAssignmentStatus(txCtx, assignment.ID, models.ReviewerAssignmentStatusCompleted)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit review: %w", err)
	}

	log.Printf("📋 Completed successfully - review %s submitted", review.ID)
	return review, nil
}
