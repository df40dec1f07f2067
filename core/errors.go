package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// IsNotFoundError checks if an error is a "not found" error.
// Handles both the sentinel error and wrapped repository errors that only
// carry "not found" in their message.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// ErrRequiredBot is returned when an operator attempts to disable or
// uninstall a bot installation flagged as required.
var ErrRequiredBot = errors.New("bot is required and cannot be disabled")

// PermissionError signals that a bot invocation was denied. The reason
// carries the missing permission for server-side logs; user-facing messages
// must stay generic and never echo it.
type PermissionError struct {
	BotID  string
	Reason string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("bot %s denied: %s", e.BotID, e.Reason)
}
