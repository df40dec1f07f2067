package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	t.Run("generates prefixed ULID", func(t *testing.T) {
		id := NewID("ms")
		assert.True(t, strings.HasPrefix(id, "ms_"))
		assert.Len(t, id, 3+26)
		assert.True(t, IsValidULID(id))
	})

	t.Run("lowercases and trims prefix", func(t *testing.T) {
		id := NewID("  BOT ")
		assert.True(t, strings.HasPrefix(id, "bot_"))
	})

	t.Run("panics on empty prefix", func(t *testing.T) {
		assert.Panics(t, func() { NewID("") })
	})

	t.Run("ids are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id := NewID("c")
			assert.False(t, seen[id])
			seen[id] = true
		}
	})
}

func TestIsValidULID(t *testing.T) {
	assert.True(t, IsValidULID(NewID("inst")))
	assert.False(t, IsValidULID(""))
	assert.False(t, IsValidULID("no-underscore"))
	assert.False(t, IsValidULID("ms_tooshort"))
	assert.False(t, IsValidULID("MS_01G0EZ1XTM37C5X11SQTDNCTM1_extra"))
}

func TestNewSecretKey(t *testing.T) {
	key, err := NewSecretKey("bts")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "bts_"))

	other, err := NewSecretKey("bts")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}
