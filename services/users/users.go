package users

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"colloquium/core"
	"colloquium/db"
	"colloquium/models"
)

type UsersService struct {
	usersRepo *db.PostgresUsersRepository
}

func NewUsersService(repo *db.PostgresUsersRepository) *UsersService {
	return &UsersService{usersRepo: repo}
}

// GetOrCreateUser resolves an authenticated identity to a platform user,
// provisioning one on first sight
func (s *UsersService) GetOrCreateUser(
	ctx context.Context,
	authProvider, authProviderID string,
) (*models.User, error) {
	if authProvider == "" || authProviderID == "" {
		return nil, fmt.Errorf("auth provider and provider id cannot be empty")
	}

	user, err := s.usersRepo.GetUserByAuthProviderID(ctx, authProvider, authProviderID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	log.Printf("📋 Provisioning new user for %s identity %s", authProvider, authProviderID)
	created, err := s.usersRepo.CreateUser(ctx, &models.User{
		ID:             core.NewID("u"),
		Handle:         defaultHandle(authProviderID),
		AuthProvider:   authProvider,
		AuthProviderID: authProviderID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	log.Printf("✅ Provisioned user %s", created.ID)
	return created, nil
}

func (s *UsersService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	return s.usersRepo.GetUserByID(ctx, id)
}

func (s *UsersService) SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.usersRepo.SearchUsers(ctx, query, limit)
}

// defaultHandle derives a provisional handle from the provider id; users
// pick a real handle during onboarding
func defaultHandle(authProviderID string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return -1
		}
	}, authProviderID)
	if len(sanitized) > 24 {
		sanitized = sanitized[:24]
	}
	if sanitized == "" {
		sanitized = "member"
	}
	return "user-" + sanitized
}
