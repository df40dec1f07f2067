package models

import (
	"time"
)

// UserRole represents a user's role within a journal
type UserRole string

const (
	UserRoleAuthor       UserRole = "author"
	UserRoleReviewer     UserRole = "reviewer"
	UserRoleActionEditor UserRole = "action_editor"
	UserRoleChiefEditor  UserRole = "chief_editor"
	UserRoleAdmin        UserRole = "admin"
)

// User represents an authenticated human user of the platform
type User struct {
	ID             string    `json:"id"              db:"id"`
	Handle         string    `json:"handle"          db:"handle"`
	DisplayName    string    `json:"display_name"    db:"display_name"`
	Email          string    `json:"email"           db:"email"`
	AuthProvider   string    `json:"auth_provider"   db:"auth_provider"`
	AuthProviderID string    `json:"auth_provider_id" db:"auth_provider_id"`
	CreatedAt      time.Time `json:"created_at"      db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"      db:"updated_at"`
}

// Participant is a user's membership in a conversation. The Handle is the
// stable identifier mentions resolve against - display names are mutable and
// ambiguous.
type Participant struct {
	UserID      string   `json:"user_id"      db:"user_id"`
	Handle      string   `json:"handle"       db:"handle"`
	DisplayName string   `json:"display_name" db:"display_name"`
	Role        UserRole `json:"role"         db:"role"`
}

// Journal represents a journal deployment and its settings snapshot
type Journal struct {
	ID       string  `json:"id"       db:"id"`
	Name     string  `json:"name"     db:"name"`
	Settings JSONMap `json:"settings" db:"settings"`
}
