package botregistry

import (
	"log"
	"sort"
	"sync"

	"github.com/samber/mo"

	"colloquium/models"
)

// BotRegistryService holds the in-memory bot definitions for the process.
// Reads vastly outnumber writes (writes happen at startup and on plugin
// reload), so a RWMutex-guarded map suffices. Updates replace the whole
// definition record; readers never observe a partially updated bot.
type BotRegistryService struct {
	mu   sync.RWMutex
	bots map[string]*models.BotDefinition
}

func NewBotRegistryService() *BotRegistryService {
	return &BotRegistryService{
		bots: make(map[string]*models.BotDefinition),
	}
}

// Register adds a bot definition. A duplicate id replaces the prior entry
// (last-registration-wins) so plugins can be hot-reloaded during development
// without an explicit unregister step.
func (s *BotRegistryService) Register(bot *models.BotDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bots[bot.ID]; exists {
		log.Printf("⚠️ Bot %s already registered, replacing prior definition", bot.ID)
	}
	s.bots[bot.ID] = bot
	log.Printf("✅ Registered bot: %s (version %s, %d commands)", bot.ID, bot.Version, len(bot.Commands))
}

// GetBot looks up a bot definition by id
func (s *BotRegistryService) GetBot(botID string) mo.Option[*models.BotDefinition] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bot, ok := s.bots[botID]
	if !ok {
		return mo.None[*models.BotDefinition]()
	}
	return mo.Some(bot)
}

// ListBots returns all registered bot definitions, ordered by id
func (s *BotRegistryService) ListBots() []*models.BotDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bots := make([]*models.BotDefinition, 0, len(s.bots))
	for _, bot := range s.bots {
		bots = append(bots, bot)
	}
	sort.Slice(bots, func(i, j int) bool { return bots[i].ID < bots[j].ID })
	return bots
}

// KnownBotIDs returns the ids of all registered bots, ordered
func (s *BotRegistryService) KnownBotIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.bots))
	for id := range s.bots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
