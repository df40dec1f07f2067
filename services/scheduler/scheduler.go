package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"colloquium/models"
	"colloquium/services"
)

// Dispatch delivers one scheduled invocation. Wired to the executor's event
// path at startup; the scheduler itself never imports the executor.
type Dispatch func(ctx context.Context, journalID, botID string, config models.JSONMap)

// SchedulerService runs bots on cron schedules. An installation opts in by
// carrying a `schedule` cron expression in its config; Sync reconciles the
// cron entries with the installation table.
type SchedulerService struct {
	cron          *cron.Cron
	installations services.BotInstallationsService
	dispatch      Dispatch

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewSchedulerService(installations services.BotInstallationsService, dispatch Dispatch) *SchedulerService {
	return &SchedulerService{
		cron:          cron.New(),
		installations: installations,
		dispatch:      dispatch,
		entries:       make(map[string]cron.EntryID),
	}
}

// Sync reconciles cron entries for one journal against its current
// installations. Disabled installations and those without a schedule lose
// their entry; an invalid cron expression skips that installation and is
// logged rather than failing the whole sync.
func (s *SchedulerService) Sync(ctx context.Context, journalID string) error {
	installations, err := s.installations.ListInstallations(ctx, journalID)
	if err != nil {
		return fmt.Errorf("failed to list installations for scheduling: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, installation := range installations {
		spec, _ := installation.Config["schedule"].(string)

		if existing, ok := s.entries[installation.ID]; ok {
			s.cron.Remove(existing)
			delete(s.entries, installation.ID)
		}
		if !installation.IsEnabled || spec == "" {
			continue
		}

		botID := installation.BotID
		config := installation.Config
		entryID, err := s.cron.AddFunc(spec, func() {
			log.Printf("📋 Scheduled run of bot %s for journal %s", botID, journalID)
			s.dispatch(context.Background(), journalID, botID, config)
		})
		if err != nil {
			log.Printf("⚠️ Invalid schedule %q on installation %s: %v", spec, installation.ID, err)
			continue
		}
		s.entries[installation.ID] = entryID
		log.Printf("✅ Scheduled bot %s for journal %s (%s)", botID, journalID, spec)
	}

	return nil
}

// ScheduledCount reports how many installations currently hold a cron entry
func (s *SchedulerService) ScheduledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *SchedulerService) Start() {
	s.cron.Start()
	log.Printf("✅ Bot scheduler started")
}

// Stop halts scheduling; a run already in flight completes
func (s *SchedulerService) Stop() {
	s.cron.Stop()
	log.Printf("📋 Bot scheduler stopped")
}
