package botinstallations

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/mo"

	"colloquium/core"
	"colloquium/models"
	"colloquium/services"
)

// installationsRepository is the persistence surface this service needs.
// *db.PostgresBotInstallationsRepository satisfies it.
type installationsRepository interface {
	CreateInstallation(ctx context.Context, installation *models.BotInstallation) error
	GetInstallationByBotID(ctx context.Context, journalID, botID string) (*models.BotInstallation, error)
	ListInstallations(ctx context.Context, journalID string) ([]*models.BotInstallation, error)
	UpdateEnabled(ctx context.Context, journalID, botID string, isEnabled bool) (*models.BotInstallation, error)
	UpdateConfig(ctx context.Context, journalID, botID string, config models.JSONMap) (*models.BotInstallation, error)
}

type BotInstallationsService struct {
	installationsRepo installationsRepository
	registry          services.BotRegistryService
}

func NewBotInstallationsService(
	installationsRepo installationsRepository,
	registry services.BotRegistryService,
) *BotInstallationsService {
	return &BotInstallationsService{
		installationsRepo: installationsRepo,
		registry:          registry,
	}
}

func (s *BotInstallationsService) InstallBot(
	ctx context.Context,
	journalID, botID string,
	initialConfig models.JSONMap,
) (*models.BotInstallation, error) {
	log.Printf("📋 Starting to install bot %s for journal %s", botID, journalID)

	if botID == "" {
		return nil, fmt.Errorf("bot_id cannot be empty")
	}
	if journalID == "" {
		return nil, fmt.Errorf("journal_id cannot be empty")
	}
	if !s.registry.GetBot(botID).IsPresent() {
		return nil, fmt.Errorf("bot %s is not registered", botID)
	}
	if initialConfig == nil {
		initialConfig = models.JSONMap{}
	}

	installation := &models.BotInstallation{
		ID:        core.NewID("inst"),
		BotID:     botID,
		JournalID: journalID,
		IsEnabled: true,
		Config:    initialConfig,
	}

	if err := s.installationsRepo.CreateInstallation(ctx, installation); err != nil {
		return nil, fmt.Errorf("failed to install bot: %w", err)
	}

	log.Printf("📋 Completed successfully - installed bot %s as %s", botID, installation.ID)
	return installation, nil
}

// UninstallBot soft-uninstalls: the installation is disabled but the row is
// retained so historical bot actions keep a valid reference. Required bots
// reject uninstall with core.ErrRequiredBot.
func (s *BotInstallationsService) UninstallBot(ctx context.Context, journalID, botID string) error {
	log.Printf("📋 Starting to uninstall bot %s for journal %s", botID, journalID)

	installation, err := s.installationsRepo.GetInstallationByBotID(ctx, journalID, botID)
	if err != nil {
		return fmt.Errorf("failed to get bot installation: %w", err)
	}
	if installation.IsRequired {
		log.Printf("❌ Bot %s is required, rejecting uninstall", botID)
		return fmt.Errorf("uninstall %s: %w", botID, core.ErrRequiredBot)
	}

	if _, err := s.installationsRepo.UpdateEnabled(ctx, journalID, botID, false); err != nil {
		return fmt.Errorf("failed to disable bot installation: %w", err)
	}

	log.Printf("📋 Completed successfully - uninstalled (disabled) bot %s", botID)
	return nil
}

func (s *BotInstallationsService) SetEnabled(
	ctx context.Context,
	journalID, botID string,
	enabled bool,
) (*models.BotInstallation, error) {
	log.Printf("📋 Starting to set bot %s enabled=%t for journal %s", botID, enabled, journalID)

	if !enabled {
		installation, err := s.installationsRepo.GetInstallationByBotID(ctx, journalID, botID)
		if err != nil {
			return nil, fmt.Errorf("failed to get bot installation: %w", err)
		}
		if installation.IsRequired {
			log.Printf("❌ Bot %s is required, rejecting disable", botID)
			return nil, fmt.Errorf("disable %s: %w", botID, core.ErrRequiredBot)
		}
	}

	installation, err := s.installationsRepo.UpdateEnabled(ctx, journalID, botID, enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to update bot installation: %w", err)
	}

	log.Printf("📋 Completed successfully - bot %s enabled=%t", botID, enabled)
	return installation, nil
}

func (s *BotInstallationsService) UpdateConfig(
	ctx context.Context,
	journalID, botID string,
	config models.JSONMap,
) (*models.BotInstallation, error) {
	log.Printf("📋 Starting to update config for bot %s in journal %s", botID, journalID)

	if config == nil {
		config = models.JSONMap{}
	}

	installation, err := s.installationsRepo.UpdateConfig(ctx, journalID, botID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to update bot installation config: %w", err)
	}

	log.Printf("📋 Completed successfully - updated config for bot %s", botID)
	return installation, nil
}

func (s *BotInstallationsService) GetInstallation(
	ctx context.Context,
	journalID, botID string,
) (mo.Option[*models.BotInstallation], error) {
	installation, err := s.installationsRepo.GetInstallationByBotID(ctx, journalID, botID)
	if err != nil {
		if core.IsNotFoundError(err) {
			return mo.None[*models.BotInstallation](), nil
		}
		return mo.None[*models.BotInstallation](), fmt.Errorf("failed to get bot installation: %w", err)
	}

	return mo.Some(installation), nil
}

func (s *BotInstallationsService) ListInstallations(
	ctx context.Context,
	journalID string,
) ([]*models.BotInstallation, error) {
	installations, err := s.installationsRepo.ListInstallations(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bot installations: %w", err)
	}

	return installations, nil
}
