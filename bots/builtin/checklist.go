package builtin

import (
	"context"
	"fmt"
	"strings"

	"colloquium/bots"
	"colloquium/models"
	"colloquium/services"
)

const ChecklistBotID = "bot-reviewer-checklist"

// ChecklistPlugin builds the reviewer checklist bot. `generate` matches the
// given @handle against the manuscript's reviewer assignments and emits a
// checklist message targeted at exactly one assignment. It never produces
// actions.
func ChecklistPlugin(reviewsService services.ReviewsService, users UserDirectory) bots.Plugin {
	bot := &models.BotDefinition{
		ID:          ChecklistBotID,
		Name:        "Reviewer Checklist",
		Description: "Generates review checklists for assigned reviewers",
		Version:     "1.0.3",
		Permissions: []string{models.PermissionReadManuscript},
		Triggers:    []models.TriggerKind{models.TriggerReviewerAssigned},
		Commands: []models.CommandSpec{
			{
				Name:        "generate",
				Description: "Generate a review checklist for one assigned reviewer",
				Usage:       `generate reviewer="@handle"`,
				Parameters: []models.ParameterSpec{
					{Name: "reviewer", Type: models.ParameterTypeString, Required: true},
				},
				Permissions: []string{models.PermissionReadManuscript},
				Execute:     generateChecklistHandler(reviewsService, users),
			},
		},
		EventHandlers: map[string]models.EventHandler{
			"REVIEWER_ASSIGNED": reviewerAssignedHandler(),
		},
	}

	return bots.Plugin{
		Manifest: bots.Manifest{
			BotID:       bot.ID,
			Name:        bot.Name,
			Version:     bot.Version,
			Description: bot.Description,
			Permissions: bot.Permissions,
		},
		Bot: bot,
	}
}

func generateChecklistHandler(reviewsService services.ReviewsService, users UserDirectory) models.CommandHandler {
	return func(ctx context.Context, params map[string]any, ec *models.BotExecutionContext) (*models.BotResult, error) {
		handle, _ := params["reviewer"].(string)
		handle = strings.TrimPrefix(handle, "@")

		assignments, err := reviewsService.ListAssignments(ctx, ec.ManuscriptID)
		if err != nil {
			return nil, fmt.Errorf("failed to list reviewer assignments: %w", err)
		}

		var matched *models.ReviewerAssignment
		for _, assignment := range assignments {
			reviewer, err := users.GetUserByID(ctx, assignment.ReviewerID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve reviewer %s: %w", assignment.ReviewerID, err)
			}
			if strings.EqualFold(reviewer.Handle, handle) {
				matched = assignment
				break
			}
		}

		if matched == nil {
			return &models.BotResult{
				Messages: []models.BotMessage{
					{Content: fmt.Sprintf("No reviewer assignment found for @%s on this manuscript.", handle)},
				},
			}, nil
		}

		return &models.BotResult{
			Messages: []models.BotMessage{
				{
					Content: checklistContent(handle),
					Metadata: models.JSONMap{
						"assignment_id": matched.ID,
						"checklist":     true,
					},
				},
			},
		}, nil
	}
}

func reviewerAssignedHandler() models.EventHandler {
	return func(_ context.Context, payload map[string]any, _ *models.BotExecutionContext) (*models.BotResult, error) {
		handle, _ := payload["reviewer_handle"].(string)
		if handle == "" {
			return &models.BotResult{}, nil
		}
		return &models.BotResult{
			Messages: []models.BotMessage{
				{Content: fmt.Sprintf("Welcome @%s! Run `@%s generate reviewer=\"@%s\"` for your review checklist.", handle, ChecklistBotID, handle)},
			},
		}, nil
	}
}

func checklistContent(handle string) string {
	items := []string{
		"Summarize the manuscript's contribution in your own words",
		"Assess novelty against the cited prior work",
		"Check that the methodology supports the stated claims",
		"Verify figures and tables match the text",
		"Note any ethical or conflict-of-interest concerns",
		"State a recommendation: accept, revise, or reject",
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Review checklist for @%s:\n", handle)
	for _, item := range items {
		fmt.Fprintf(&b, "- [ ] %s\n", item)
	}
	return b.String()
}
