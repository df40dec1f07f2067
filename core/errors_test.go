package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("journal j_1: %w", ErrNotFound)))
	assert.True(t, IsNotFoundError(fmt.Errorf("row Not Found in shard")))
	assert.False(t, IsNotFoundError(fmt.Errorf("connection refused")))
}

func TestPermissionErrorMessage(t *testing.T) {
	err := &PermissionError{BotID: "bot-editorial", Reason: "disabled for journal j_1"}
	assert.Equal(t, "bot bot-editorial denied: disabled for journal j_1", err.Error())
}
