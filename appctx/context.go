package appctx

import (
	"context"

	"colloquium/bots"
	"colloquium/models"
)

// Context key for storing request-scoped entities
type contextKey string

const (
	UserContextKey      contextKey = "user"
	JournalContextKey   contextKey = "journal"
	BotClaimsContextKey contextKey = "bot_claims"
)

// SetUser adds the user entity to the request context
func SetUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// GetUser extracts the user entity from the request context
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

// SetJournal adds the journal entity to the request context
func SetJournal(ctx context.Context, journal *models.Journal) context.Context {
	return context.WithValue(ctx, JournalContextKey, journal)
}

// GetJournal extracts the journal entity from the request context
func GetJournal(ctx context.Context) (*models.Journal, bool) {
	journal, ok := ctx.Value(JournalContextKey).(*models.Journal)
	return journal, ok
}

// SetBotClaims adds verified bot service-token claims to the request context
func SetBotClaims(ctx context.Context, claims *bots.ServiceTokenClaims) context.Context {
	return context.WithValue(ctx, BotClaimsContextKey, claims)
}

// GetBotClaims extracts bot service-token claims from the request context
func GetBotClaims(ctx context.Context) (*bots.ServiceTokenClaims, bool) {
	claims, ok := ctx.Value(BotClaimsContextKey).(*bots.ServiceTokenClaims)
	return claims, ok
}
