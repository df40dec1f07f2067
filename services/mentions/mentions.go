package mentions

import (
	"context"
	"fmt"
	"log"
	"strings"

	"colloquium/models"
	"colloquium/services"
	"colloquium/utils"
)

// MentionsService classifies @tokens as bot or user references and resolves
// user references against the conversation's participant list. Matching is
// by stable handle, not display name - display names are mutable and
// ambiguous between participants.
type MentionsService struct {
	registry             services.BotRegistryService
	conversationsService services.ConversationsService
}

func NewMentionsService(
	registry services.BotRegistryService,
	conversationsService services.ConversationsService,
) *MentionsService {
	return &MentionsService{
		registry:             registry,
		conversationsService: conversationsService,
	}
}

// ResolveMentions scans content for @name spans and resolves each one.
// Unresolved user mentions are still returned with an empty UserID so the UI
// can render them distinctly; absence of a match is not an error.
func (s *MentionsService) ResolveMentions(
	ctx context.Context,
	content, conversationID string,
) ([]*models.ResolvedMention, error) {
	tokens := utils.ExtractMentionTokens(content)
	if len(tokens) == 0 {
		return nil, nil
	}

	participants, err := s.conversationsService.ListParticipants(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation participants: %w", err)
	}

	participantsByHandle := make(map[string]*models.Participant, len(participants))
	for _, participant := range participants {
		participantsByHandle[strings.ToLower(participant.Handle)] = participant
	}

	knownBots := make(map[string]bool)
	for _, id := range s.registry.KnownBotIDs() {
		knownBots[id] = true
	}

	resolved := make([]*models.ResolvedMention, 0, len(tokens))
	for _, token := range tokens {
		if isBotReference(token.Name, knownBots) {
			resolved = append(resolved, &models.ResolvedMention{
				OriginalText: token.Text,
				Type:         models.MentionTypeBot,
				BotID:        token.Name,
				DisplayName:  token.Name,
			})
			continue
		}

		mention := &models.ResolvedMention{
			OriginalText: token.Text,
			Type:         models.MentionTypeUser,
			DisplayName:  token.Name,
		}
		if participant, ok := participantsByHandle[strings.ToLower(token.Name)]; ok {
			mention.UserID = participant.UserID
			mention.DisplayName = participant.DisplayName
		} else {
			log.Printf("⚠️ Mention %s matched no participant in conversation %s", token.Text, conversationID)
		}
		resolved = append(resolved, mention)
	}

	return resolved, nil
}

// isBotReference classifies a mention name as a bot when it matches a
// registered bot id or carries a bot-like suffix
func isBotReference(name string, knownBots map[string]bool) bool {
	if knownBots[name] {
		return true
	}
	return strings.HasSuffix(name, "-bot") || strings.HasSuffix(name, "-checker")
}
