package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"colloquium/bots/builtin"
)

const assessmentMaxTokens = 1024

// OverlapAnalyzer produces prose assessments of plagiarism scan findings via
// the Anthropic API. It implements builtin.ContentAnalyzer.
type OverlapAnalyzer struct {
	client anthropic.Client
	model  anthropic.Model
}

func NewOverlapAnalyzer(apiKey string) *OverlapAnalyzer {
	return &OverlapAnalyzer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.ModelClaudeSonnet4_20250514,
	}
}

func (a *OverlapAnalyzer) AssessOverlap(ctx context.Context, journalName string, matches []builtin.SimilarityMatch) (string, error) {
	var b strings.Builder
	b.WriteString("You are assisting an academic journal's plagiarism screening. ")
	b.WriteString("Given the flagged similarity matches below, write a short, neutral assessment (2-3 sentences) ")
	b.WriteString("of whether the overlap pattern looks like common boilerplate, proper quotation, or potential plagiarism. ")
	b.WriteString("Do not accuse; describe.\n\nFlagged matches:\n")
	for _, match := range matches {
		fmt.Fprintf(&b, "- %s: %s overlap\n", match.Source, match.Score.String())
	}
	if journalName != "" {
		fmt.Fprintf(&b, "\nJournal: %s\n", journalName)
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: assessmentMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(b.String())),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to request overlap assessment: %w", err)
	}

	var assessment strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			assessment.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(assessment.String()), nil
}
