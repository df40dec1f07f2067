package utils

import (
	"regexp"
)

// MentionToken is a raw @name span found in message content, before it has
// been classified as a bot or user reference.
type MentionToken struct {
	Text  string // literal span including the leading @
	Name  string // span without the leading @
	Start int    // byte offset of the @ in the source content
	End   int    // byte offset one past the last name character
}

// Mention names are 3-30 chars of letters/digits/hyphen. The leading group
// rejects tokens preceded by a word character (so email addresses like
// "reviews@journal.org" never produce a mention).
var mentionPattern = regexp.MustCompile(`(?:^|[^0-9A-Za-z_@])(@[A-Za-z0-9][A-Za-z0-9-]{2,29})`)

// ExtractMentionTokens scans content in a single pass for @name spans.
// Matches never overlap: each character of the source text belongs to at
// most one returned token.
func ExtractMentionTokens(content string) []MentionToken {
	matches := mentionPattern.FindAllStringSubmatchIndex(content, -1)
	tokens := make([]MentionToken, 0, len(matches))
	for _, m := range matches {
		start, end := m[2], m[3]
		text := content[start:end]
		tokens = append(tokens, MentionToken{
			Text:  text,
			Name:  text[1:],
			Start: start,
			End:   end,
		})
	}
	return tokens
}
