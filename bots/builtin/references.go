package builtin

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"colloquium/bots"
	"colloquium/models"
)

const ReferenceBotID = "bot-reference-checker"

// doiPattern matches the DOI shape: "10.<registrant>/<suffix>"
var doiPattern = regexp.MustCompile(`\b10\.\d{4,9}/[^\s"<>]+`)

// ReferencePlugin builds the reference checker bot. `validate` scans the
// manuscript's reference list for DOI-shaped identifiers and reports entries
// missing one.
func ReferencePlugin(references ReferenceSource) bots.Plugin {
	bot := &models.BotDefinition{
		ID:          ReferenceBotID,
		Name:        "Reference Checker",
		Description: "Validates manuscript reference lists for resolvable identifiers",
		Version:     "0.9.1",
		Permissions: []string{models.PermissionReadManuscript, models.PermissionReadFiles},
		Commands: []models.CommandSpec{
			{
				Name:        "validate",
				Description: "Scan the reference list for DOI-shaped identifiers",
				Usage:       "validate",
				Permissions: []string{models.PermissionReadManuscript, models.PermissionReadFiles},
				Execute:     validateReferencesHandler(references),
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

func validateReferencesHandler(references ReferenceSource) models.CommandHandler {
	return func(ctx context.Context, _ map[string]any, ec *models.BotExecutionContext) (*models.BotResult, error) {
		entries, err := references.ListReferences(ctx, ec.ManuscriptID, ec.ServiceToken)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch reference list: %w", err)
		}

		if len(entries) == 0 {
			return &models.BotResult{
				Messages: []models.BotMessage{
					{Content: "No references found on this manuscript."},
				},
			}, nil
		}

		var missing []string
		for i, entry := range entries {
			if !doiPattern.MatchString(entry) {
				missing = append(missing, fmt.Sprintf("%d. %s", i+1, truncate(entry, 120)))
			}
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Checked %d references: %d with a DOI, %d without.\n", len(entries), len(entries)-len(missing), len(missing))
		if len(missing) > 0 {
			b.WriteString("References missing a DOI:\n")
			for _, entry := range missing {
				fmt.Fprintf(&b, "- %s\n", entry)
			}
		}

		return &models.BotResult{
			Messages: []models.BotMessage{
				{
					Content: b.String(),
					Metadata: models.JSONMap{
						"reference_count": len(entries),
						"missing_doi":     len(missing),
					},
				},
			},
		}, nil
	}
}

// truncate cuts s to at most max bytes without splitting a rune
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
