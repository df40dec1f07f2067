package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"

	botkit "colloquium/bots"
	"colloquium/bots/builtin"
	referencesclient "colloquium/clients/references"
	similarityclient "colloquium/clients/similarity"
	"colloquium/config"
	"colloquium/db"
	"colloquium/models"
	"colloquium/services"
	"colloquium/services/botinstallations"
	"colloquium/services/botregistry"
	"colloquium/services/reviews"
	"colloquium/services/txmanager"
	"colloquium/services/users"
)

type Options struct {
	Journal   string `long:"journal"   short:"j" description:"Journal id to operate on" required:"true"`
	List      bool   `long:"list"      description:"List registered bots and their installation state"`
	Install   string `long:"install"   value-name:"BOT_ID" description:"Install a bot for the journal"`
	Uninstall string `long:"uninstall" value-name:"BOT_ID" description:"Uninstall (disable) a bot"`
	Enable    string `long:"enable"    value-name:"BOT_ID" description:"Enable an installed bot"`
	Disable   string `long:"disable"   value-name:"BOT_ID" description:"Disable an installed bot"`
	SetConfig string `long:"set-config" value-name:"BOT_ID" description:"Replace a bot installation's config"`
	Config    string `long:"config"    value-name:"JSON" description:"JSON config used with --install and --set-config"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := runCommand(opts); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func runCommand(opts Options) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	installationsRepo := db.NewPostgresBotInstallationsRepository(dbConn, cfg.DatabaseSchema)
	usersRepo := db.NewPostgresUsersRepository(dbConn, cfg.DatabaseSchema)
	reviewsRepo := db.NewPostgresReviewsRepository(dbConn, cfg.DatabaseSchema)
	txManager := txmanager.NewTransactionManager(dbConn)

	// The registry must hold the same catalog as the server so install
	// requests validate against real bot ids
	registry := botregistry.NewBotRegistryService()
	loader := botkit.NewLoader(registry)
	if _, err := loader.LoadFrom(context.Background(), builtin.Source(builtin.Deps{
		Reviews:    reviews.NewReviewsService(reviewsRepo, txManager),
		Users:      users.NewUsersService(usersRepo),
		References: referencesclient.NewClient(cfg.BaseURL),
		Similarity: similarityclient.NewUnconfigured(),
	})); err != nil {
		return err
	}

	installationsService := botinstallations.NewBotInstallationsService(installationsRepo, registry)
	ctx := context.Background()

	switch {
	case opts.List:
		return listBots(ctx, registry, installationsService, opts.Journal)
	case opts.Install != "":
		botConfig, err := parseConfig(opts.Config)
		if err != nil {
			return err
		}
		installation, err := installationsService.InstallBot(ctx, opts.Journal, opts.Install, botConfig)
		if err != nil {
			return err
		}
		fmt.Printf("Installed %s as %s\n", opts.Install, installation.ID)
		return nil
	case opts.Uninstall != "":
		if err := installationsService.UninstallBot(ctx, opts.Journal, opts.Uninstall); err != nil {
			return err
		}
		fmt.Printf("Uninstalled %s\n", opts.Uninstall)
		return nil
	case opts.Enable != "":
		if _, err := installationsService.SetEnabled(ctx, opts.Journal, opts.Enable, true); err != nil {
			return err
		}
		fmt.Printf("Enabled %s\n", opts.Enable)
		return nil
	case opts.Disable != "":
		if _, err := installationsService.SetEnabled(ctx, opts.Journal, opts.Disable, false); err != nil {
			return err
		}
		fmt.Printf("Disabled %s\n", opts.Disable)
		return nil
	case opts.SetConfig != "":
		botConfig, err := parseConfig(opts.Config)
		if err != nil {
			return err
		}
		if _, err := installationsService.UpdateConfig(ctx, opts.Journal, opts.SetConfig, botConfig); err != nil {
			return err
		}
		fmt.Printf("Updated config for %s\n", opts.SetConfig)
		return nil
	default:
		return fmt.Errorf("no operation given; use --list, --install, --uninstall, --enable, --disable or --set-config")
	}
}

func parseConfig(raw string) (models.JSONMap, error) {
	if raw == "" {
		return models.JSONMap{}, nil
	}
	var config models.JSONMap
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return nil, fmt.Errorf("--config must be a JSON object: %w", err)
	}
	return config, nil
}

func listBots(
	ctx context.Context,
	registry services.BotRegistryService,
	installations services.BotInstallationsService,
	journalID string,
) error {
	installed, err := installations.ListInstallations(ctx, journalID)
	if err != nil {
		return err
	}
	byBotID := make(map[string]*models.BotInstallation, len(installed))
	for _, installation := range installed {
		byBotID[installation.BotID] = installation
	}

	for _, bot := range registry.ListBots() {
		state := "not installed"
		if installation, ok := byBotID[bot.ID]; ok {
			if installation.IsEnabled {
				state = "enabled"
			} else {
				state = "disabled"
			}
		}
		fmt.Printf("%-26s %-10s %s\n", bot.ID, bot.Version, state)
	}
	return nil
}
