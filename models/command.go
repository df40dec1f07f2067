package models

import (
	"fmt"
	"strings"
)

// ParsedCommand is the output of parsing a bot mention's trailing text
type ParsedCommand struct {
	BotID      string         `json:"bot_id"`
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters"`
	// RawText preserves the original mention text for audit and echo
	RawText string `json:"raw_text"`
	// IsUnrecognized is true when the addressed bot or command name does
	// not resolve. A recognized command with invalid parameters instead
	// produces a ParameterValidationError.
	IsUnrecognized bool `json:"is_unrecognized"`
}

// ParameterValidationError reports the offending parameters of a recognized
// command. Distinct from IsUnrecognized - callers surface the two
// differently.
type ParameterValidationError struct {
	BotID      string
	Command    string
	Parameters []string
	Reasons    []string
}

func (e *ParameterValidationError) Error() string {
	return fmt.Sprintf("invalid parameters for @%s %s: %s",
		e.BotID, e.Command, strings.Join(e.Reasons, "; "))
}

// MentionType classifies a resolved mention
type MentionType string

const (
	MentionTypeUser MentionType = "user"
	MentionTypeBot  MentionType = "bot"
)

// ResolvedMention is one classified @token span. User mentions that match no
// conversation participant are still returned with an empty UserID so the UI
// can render them distinctly - absence of a match is not an error.
type ResolvedMention struct {
	OriginalText string      `json:"original_text"`
	Type         MentionType `json:"type"`
	UserID       string      `json:"user_id,omitempty"`
	BotID        string      `json:"bot_id,omitempty"`
	DisplayName  string      `json:"display_name"`
}
