package bots

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceTokenIssuer(t *testing.T) {
	issuer := NewServiceTokenIssuer("test-signing-secret", 5*time.Minute)

	t.Run("mint and verify round trip", func(t *testing.T) {
		signed, err := issuer.Mint("bot-editorial", "ms_123", []string{"read_manuscript", "make_editorial_decision"})
		require.NoError(t, err)

		claims, err := issuer.Verify(signed)
		require.NoError(t, err)
		assert.Equal(t, "bot-editorial", claims.BotID)
		assert.Equal(t, "ms_123", claims.ManuscriptID)
		assert.Equal(t, []string{"read_manuscript", "make_editorial_decision"}, claims.Permissions)
		assert.Equal(t, TokenTypeBotService, claims.TokenType)
	})

	t.Run("rejects token signed with a different secret", func(t *testing.T) {
		other := NewServiceTokenIssuer("other-secret", 5*time.Minute)
		signed, err := other.Mint("bot-editorial", "ms_123", nil)
		require.NoError(t, err)

		_, err = issuer.Verify(signed)
		assert.Error(t, err)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := NewServiceTokenIssuer("test-signing-secret", -1*time.Minute)
		signed, err := expired.Mint("bot-editorial", "ms_123", nil)
		require.NoError(t, err)

		_, err = issuer.Verify(signed)
		assert.Error(t, err)
	})

	t.Run("rejects non-bot token type", func(t *testing.T) {
		claims := ServiceTokenClaims{
			BotID:     "bot-editorial",
			TokenType: "user_session",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-secret"))
		require.NoError(t, err)

		_, err = issuer.Verify(signed)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a bot service token")
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.Error(t, err)
	})
}
