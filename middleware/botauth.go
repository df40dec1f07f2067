package middleware

import (
	"encoding/base64"
	"log"
	"net/http"

	"colloquium/appctx"
	"colloquium/bots"
)

// BotAuthMiddleware authenticates bot service tokens on the bot-facing API.
// User session tokens are rejected: Verify refuses any token whose type
// marker is not bot_service.
type BotAuthMiddleware struct {
	tokens *bots.ServiceTokenIssuer
}

func NewBotAuthMiddleware(tokens *bots.ServiceTokenIssuer) *BotAuthMiddleware {
	return &BotAuthMiddleware{tokens: tokens}
}

// WithBotAuth wraps an HTTP handler with bot service-token authentication
func (m *BotAuthMiddleware) WithBotAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeErrorResponse(w, "missing or malformed authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			log.Printf("❌ Bot token verification failed: %v", err)
			writeErrorResponse(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := appctx.SetBotClaims(r.Context(), claims)
		next(w, r.WithContext(ctx))
	}
}

func decodeSegment(segment string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(segment)
}
