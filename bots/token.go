package bots

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeBotService marks a bot service token. User-facing JWTs carry a
// different token_type and are rejected by Verify.
const TokenTypeBotService = "bot_service"

// ServiceTokenClaims is the claim set minted per bot invocation
type ServiceTokenClaims struct {
	BotID        string   `json:"bot_id"`
	ManuscriptID string   `json:"manuscript_id"`
	Permissions  []string `json:"permissions"`
	TokenType    string   `json:"token_type"`
	jwt.RegisteredClaims
}

// ServiceTokenIssuer mints and verifies short-lived HS256 bot service tokens
type ServiceTokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewServiceTokenIssuer(secret string, ttl time.Duration) *ServiceTokenIssuer {
	return &ServiceTokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Mint issues a token scoped to one bot, one manuscript, and the bot's
// declared permissions. The token expires after the issuer's TTL, which is
// sized to outlive a single invocation and nothing more.
func (i *ServiceTokenIssuer) Mint(botID, manuscriptID string, permissions []string) (string, error) {
	now := time.Now()
	claims := ServiceTokenClaims{
		BotID:        botID,
		ManuscriptID: manuscriptID,
		Permissions:  permissions,
		TokenType:    TokenTypeBotService,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   botID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a service token. Tokens with the wrong signing
// method, an expired lifetime, or a non-bot token_type are rejected.
func (i *ServiceTokenIssuer) Verify(tokenString string) (*ServiceTokenClaims, error) {
	claims := &ServiceTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid service token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid service token")
	}
	if claims.TokenType != TokenTypeBotService {
		return nil, fmt.Errorf("token is not a bot service token")
	}
	return claims, nil
}
