package models

import (
	"time"
)

// ManuscriptStatus represents where a manuscript sits in the editorial workflow
type ManuscriptStatus string

const (
	ManuscriptStatusSubmitted         ManuscriptStatus = "SUBMITTED"
	ManuscriptStatusUnderReview       ManuscriptStatus = "UNDER_REVIEW"
	ManuscriptStatusRevisionRequested ManuscriptStatus = "REVISION_REQUESTED"
	ManuscriptStatusAccepted          ManuscriptStatus = "ACCEPTED"
	ManuscriptStatusRejected          ManuscriptStatus = "REJECTED"
	ManuscriptStatusPublished         ManuscriptStatus = "PUBLISHED"
)

// Manuscript represents a submitted manuscript
type Manuscript struct {
	ID             string           `json:"id"               db:"id"`
	JournalID      string           `json:"journal_id"       db:"journal_id"`
	Title          string           `json:"title"            db:"title"`
	Abstract       string           `json:"abstract"         db:"abstract"`
	Status         ManuscriptStatus `json:"status"           db:"status"`
	AuthorID       string           `json:"author_id"        db:"author_id"`
	ActionEditorID *string          `json:"action_editor_id" db:"action_editor_id"`
	CreatedAt      time.Time        `json:"created_at"       db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"       db:"updated_at"`
}

// ReviewerAssignmentStatus tracks the lifecycle of a reviewer assignment
type ReviewerAssignmentStatus string

const (
	ReviewerAssignmentStatusPending   ReviewerAssignmentStatus = "PENDING"
	ReviewerAssignmentStatusAccepted  ReviewerAssignmentStatus = "ACCEPTED"
	ReviewerAssignmentStatusDeclined  ReviewerAssignmentStatus = "DECLINED"
	ReviewerAssignmentStatusCompleted ReviewerAssignmentStatus = "COMPLETED"
)

// ReviewerAssignment links a reviewer to a manuscript
type ReviewerAssignment struct {
	ID           string                   `json:"id"            db:"id"`
	ManuscriptID string                   `json:"manuscript_id" db:"manuscript_id"`
	ReviewerID   string                   `json:"reviewer_id"   db:"reviewer_id"`
	AssignedByID string                   `json:"assigned_by_id" db:"assigned_by_id"`
	Status       ReviewerAssignmentStatus `json:"status"        db:"status"`
	DueDate      *time.Time               `json:"due_date"      db:"due_date"`
	CreatedAt    time.Time                `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"    db:"updated_at"`
}

// Review records reviewer feedback against an assignment
type Review struct {
	ID             string    `json:"id"             db:"id"`
	AssignmentID   string    `json:"assignment_id"  db:"assignment_id"`
	ManuscriptID   string    `json:"manuscript_id"  db:"manuscript_id"`
	Recommendation string    `json:"recommendation" db:"recommendation"`
	Content        string    `json:"content"        db:"content"`
	CreatedAt      time.Time `json:"created_at"     db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"     db:"updated_at"`
}

// ManuscriptFile is one uploaded file attached to a manuscript. Content is
// only populated by single-file lookups; listings carry metadata alone.
type ManuscriptFile struct {
	ID           string    `json:"id"           db:"id"`
	ManuscriptID string    `json:"manuscript_id" db:"manuscript_id"`
	Name         string    `json:"name"         db:"name"`
	ContentType  string    `json:"content_type" db:"content_type"`
	Size         int64     `json:"size"         db:"size"`
	Content      []byte    `json:"-"            db:"content"`
	CreatedAt    time.Time `json:"created_at"   db:"created_at"`
}

// DecisionOutcome is the outcome of an editorial decision
type DecisionOutcome string

const (
	DecisionOutcomeAccept DecisionOutcome = "accept"
	DecisionOutcomeReject DecisionOutcome = "reject"
	DecisionOutcomeRevise DecisionOutcome = "revise"
)

// EditorialDecision records a decision of record on a manuscript
type EditorialDecision struct {
	ID           string          `json:"id"            db:"id"`
	ManuscriptID string          `json:"manuscript_id" db:"manuscript_id"`
	Outcome      DecisionOutcome `json:"outcome"       db:"outcome"`
	Comments     string          `json:"comments"      db:"comments"`
	DecidedByID  string          `json:"decided_by_id" db:"decided_by_id"`
	CreatedAt    time.Time       `json:"created_at"    db:"created_at"`
}
