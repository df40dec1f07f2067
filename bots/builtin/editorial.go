package builtin

import (
	"context"
	"fmt"
	"strings"

	"colloquium/bots"
	"colloquium/models"
)

const EditorialBotID = "bot-editorial"

// EditorialPlugin builds the editorial assistant bot. It is pure: every
// command translates its parameters into actions and leaves the mutations to
// the action processor.
func EditorialPlugin() bots.Plugin {
	bot := &models.BotDefinition{
		ID:          EditorialBotID,
		Name:        "Editorial Assistant",
		Description: "Records editorial decisions, assigns action editors and moves manuscripts through the workflow",
		Version:     "1.2.0",
		Permissions: []string{
			models.PermissionReadManuscript,
			models.PermissionMakeEditorialDecision,
			models.PermissionAssignActionEditor,
			models.PermissionUpdateStatus,
			models.PermissionManageConversations,
		},
		Commands: []models.CommandSpec{
			{
				Name:        "release",
				Description: "Record the editorial decision for this manuscript",
				Usage:       `release decision=<accept|reject|revise> [comments="..."]`,
				Parameters: []models.ParameterSpec{
					{
						Name:       "decision",
						Type:       models.ParameterTypeEnum,
						Required:   true,
						EnumValues: []string{"accept", "reject", "revise"},
					},
					{
						Name:         "comments",
						Type:         models.ParameterTypeString,
						DefaultValue: "",
					},
				},
				Permissions: []string{models.PermissionMakeEditorialDecision, models.PermissionManageConversations},
				Execute:     handleRelease,
			},
			{
				Name:        "assign",
				Description: "Assign an action editor of record",
				Usage:       "assign editor=<user id or @handle>",
				Parameters: []models.ParameterSpec{
					{Name: "editor", Type: models.ParameterTypeString, Required: true},
				},
				Permissions: []string{models.PermissionAssignActionEditor},
				Execute:     handleAssignEditor,
			},
			{
				Name:        "status",
				Description: "Move the manuscript to a workflow status",
				Usage:       "status value=<status>",
				Parameters: []models.ParameterSpec{
					{
						Name:     "value",
						Type:     models.ParameterTypeEnum,
						Required: true,
						EnumValues: []string{
							string(models.ManuscriptStatusSubmitted),
							string(models.ManuscriptStatusUnderReview),
							string(models.ManuscriptStatusRevisionRequested),
							string(models.ManuscriptStatusAccepted),
							string(models.ManuscriptStatusRejected),
							string(models.ManuscriptStatusPublished),
						},
					},
				},
				Permissions: []string{models.PermissionUpdateStatus},
				Execute:     handleStatus,
			},
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

func handleRelease(_ context.Context, params map[string]any, ec *models.BotExecutionContext) (*models.BotResult, error) {
	decision, _ := params["decision"].(string)
	comments, _ := params["comments"].(string)

	result := &models.BotResult{}

	// A revision decision opens the follow-up conversation first so the
	// decision record lands after the venue for discussing it exists.
	if decision == string(models.DecisionOutcomeRevise) {
		result.Actions = append(result.Actions, models.BotAction{
			Type: models.ActionCreateConversation,
			Data: map[string]any{
				"type":            string(models.ConversationTypeRevision),
				"title":           "Revision discussion",
				"participant_ids": []any{ec.TriggeredBy.UserID},
			},
		})
	}

	result.Actions = append(result.Actions, models.BotAction{
		Type: models.ActionMakeEditorialDecision,
		Data: map[string]any{
			"outcome":  decision,
			"comments": comments,
		},
	})
	result.Messages = append(result.Messages, models.BotMessage{
		Content: fmt.Sprintf("Editorial decision recorded: **%s**.", decision),
	})
	return result, nil
}

func handleAssignEditor(_ context.Context, params map[string]any, _ *models.BotExecutionContext) (*models.BotResult, error) {
	editor, _ := params["editor"].(string)
	editor = strings.TrimPrefix(editor, "@")

	return &models.BotResult{
		Actions: []models.BotAction{
			{
				Type: models.ActionAssignActionEditor,
				Data: map[string]any{"editor_id": editor},
			},
		},
		Messages: []models.BotMessage{
			{Content: fmt.Sprintf("Assigning %s as action editor.", editor)},
		},
	}, nil
}

func handleStatus(_ context.Context, params map[string]any, _ *models.BotExecutionContext) (*models.BotResult, error) {
	status, _ := params["value"].(string)

	return &models.BotResult{
		Actions: []models.BotAction{
			{
				Type: models.ActionUpdateManuscriptStatus,
				Data: map[string]any{"status": status},
			},
		},
		Messages: []models.BotMessage{
			{Content: fmt.Sprintf("Moving manuscript to %s.", status)},
		},
	}, nil
}
