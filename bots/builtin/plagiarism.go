package builtin

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"colloquium/bots"
	"colloquium/models"
)

const PlagiarismBotID = "bot-plagiarism-checker"

// defaultSimilarityThreshold flags sources overlapping 40% or more
var defaultSimilarityThreshold = decimal.NewFromFloat(0.4)

// PlagiarismPlugin builds the plagiarism checker bot. `scan` runs a
// similarity scan and reports sources above the threshold; when a content
// analyzer is wired it appends a prose assessment of the flagged overlap.
func PlagiarismPlugin(scanner SimilarityScanner, analyzer ContentAnalyzer) bots.Plugin {
	bot := &models.BotDefinition{
		ID:          PlagiarismBotID,
		Name:        "Plagiarism Checker",
		Description: "Scans manuscripts for overlap with previously published work",
		Version:     "2.1.0",
		Permissions: []string{models.PermissionReadManuscript, models.PermissionReadFiles},
		Triggers:    []models.TriggerKind{models.TriggerManuscriptSubmitted},
		Commands: []models.CommandSpec{
			{
				Name:        "scan",
				Description: "Run a similarity scan against the published corpus",
				Usage:       "scan [threshold=<0..1>]",
				Parameters: []models.ParameterSpec{
					{
						Name:         "threshold",
						Type:         models.ParameterTypeNumber,
						DefaultValue: 0.4,
						Validate: func(value any) error {
							v, ok := value.(float64)
							if !ok || v <= 0 || v > 1 {
								return fmt.Errorf("threshold must be between 0 and 1")
							}
							return nil
						},
					},
				},
				Permissions: []string{models.PermissionReadManuscript, models.PermissionReadFiles},
				Execute:     scanHandler(scanner, analyzer),
			},
		},
		EventHandlers: map[string]models.EventHandler{
			"MANUSCRIPT_SUBMITTED": submittedScanHandler(scanner),
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

func scanHandler(scanner SimilarityScanner, analyzer ContentAnalyzer) models.CommandHandler {
	return func(ctx context.Context, params map[string]any, ec *models.BotExecutionContext) (*models.BotResult, error) {
		thresholdParam, _ := params["threshold"].(float64)
		threshold := decimal.NewFromFloat(thresholdParam)

		matches, err := scanner.ScanManuscript(ctx, ec.ManuscriptID)
		if err != nil {
			return nil, fmt.Errorf("similarity scan failed: %w", err)
		}

		flagged := flagMatches(matches, threshold)
		content := reportContent(matches, flagged, threshold)

		if len(flagged) > 0 && analyzer != nil {
			title := ""
			if ec.Journal != nil {
				title = ec.Journal.Name
			}
			assessment, err := analyzer.AssessOverlap(ctx, title, flagged)
			if err != nil {
				// the scan report stands on its own without the assessment
				log.Printf("⚠️ Overlap assessment failed for manuscript %s: %v", ec.ManuscriptID, err)
			} else if assessment != "" {
				content += "\n" + assessment
			}
		}

		return &models.BotResult{
			Messages: []models.BotMessage{
				{
					Content: content,
					Metadata: models.JSONMap{
						"sources_scanned": len(matches),
						"sources_flagged": len(flagged),
						"threshold":       threshold.String(),
					},
				},
			},
		}, nil
	}
}

func submittedScanHandler(scanner SimilarityScanner) models.EventHandler {
	return func(ctx context.Context, _ map[string]any, ec *models.BotExecutionContext) (*models.BotResult, error) {
		matches, err := scanner.ScanManuscript(ctx, ec.ManuscriptID)
		if err != nil {
			return nil, fmt.Errorf("similarity scan failed: %w", err)
		}

		flagged := flagMatches(matches, defaultSimilarityThreshold)
		if len(flagged) == 0 {
			return &models.BotResult{}, nil
		}

		return &models.BotResult{
			Messages: []models.BotMessage{
				{Content: reportContent(matches, flagged, defaultSimilarityThreshold)},
			},
		}, nil
	}
}

func flagMatches(matches []SimilarityMatch, threshold decimal.Decimal) []SimilarityMatch {
	var flagged []SimilarityMatch
	for _, match := range matches {
		if match.Score.GreaterThanOrEqual(threshold) {
			flagged = append(flagged, match)
		}
	}
	return flagged
}

func reportContent(matches, flagged []SimilarityMatch, threshold decimal.Decimal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Similarity scan complete: %d sources checked, %d at or above threshold %s.\n",
		len(matches), len(flagged), threshold.StringFixed(2))
	for _, match := range flagged {
		fmt.Fprintf(&b, "- %s (%s%% overlap)\n", match.Source, match.Score.Mul(decimal.NewFromInt(100)).StringFixed(1))
	}
	return b.String()
}
