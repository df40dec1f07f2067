package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMentionTokens(t *testing.T) {
	t.Run("finds simple mention", func(t *testing.T) {
		tokens := ExtractMentionTokens("hello @DrSmith please review")
		require.Len(t, tokens, 1)
		assert.Equal(t, "@DrSmith", tokens[0].Text)
		assert.Equal(t, "DrSmith", tokens[0].Name)
	})

	t.Run("finds mention at start of content", func(t *testing.T) {
		tokens := ExtractMentionTokens("@bot-editorial release decision=accept")
		require.Len(t, tokens, 1)
		assert.Equal(t, "bot-editorial", tokens[0].Name)
	})

	t.Run("mention terminated by punctuation", func(t *testing.T) {
		tokens := ExtractMentionTokens("thanks @DrSmith, much appreciated")
		require.Len(t, tokens, 1)
		assert.Equal(t, "DrSmith", tokens[0].Name)
	})

	t.Run("ignores email addresses", func(t *testing.T) {
		tokens := ExtractMentionTokens("contact reviews@journal-ops for help")
		assert.Empty(t, tokens)
	})

	t.Run("ignores names shorter than three chars", func(t *testing.T) {
		tokens := ExtractMentionTokens("cc @ab and @xy")
		assert.Empty(t, tokens)
	})

	t.Run("caps names at thirty chars", func(t *testing.T) {
		long := "@abcdefghijklmnopqrstuvwxyz0123456789"
		tokens := ExtractMentionTokens(long)
		require.Len(t, tokens, 1)
		assert.Len(t, tokens[0].Name, 30)
	})

	t.Run("spans never overlap", func(t *testing.T) {
		tokens := ExtractMentionTokens("@bot-editorial @bot-reviewer-checklist @DrSmith@JSmith")
		require.GreaterOrEqual(t, len(tokens), 2)
		for i := 1; i < len(tokens); i++ {
			assert.GreaterOrEqual(t, tokens[i].Start, tokens[i-1].End,
				"token %d overlaps token %d", i, i-1)
		}
	})

	t.Run("offsets point at source text", func(t *testing.T) {
		content := "ping @bot-editorial now"
		tokens := ExtractMentionTokens(content)
		require.Len(t, tokens, 1)
		assert.Equal(t, tokens[0].Text, content[tokens[0].Start:tokens[0].End])
	})
}
