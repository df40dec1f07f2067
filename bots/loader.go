package bots

import (
	"context"
	"fmt"
	"log"

	"colloquium/models"
	"colloquium/services"
)

// Loader validates plugins and registers their bots. A plugin that fails
// any check is rejected whole; a valid bot definition bundled with a bad
// manifest never reaches the registry.
type Loader struct {
	registry services.BotRegistryService
}

func NewLoader(registry services.BotRegistryService) *Loader {
	return &Loader{registry: registry}
}

// LoadFrom validates and registers every plugin the source yields.
// It returns the number of bots registered; the first invalid plugin
// aborts the load so a partially broken plugin set is caught at startup.
func (l *Loader) LoadFrom(ctx context.Context, source PluginSource) (int, error) {
	plugins, err := source.Plugins(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list plugins: %w", err)
	}

	loaded := 0
	for _, plugin := range plugins {
		if err := l.LoadPlugin(plugin); err != nil {
			return loaded, err
		}
		loaded++
	}

	log.Printf("✅ Loaded %d bot plugins", loaded)
	return loaded, nil
}

// LoadPlugin validates a single plugin and registers its bot
func (l *Loader) LoadPlugin(plugin Plugin) error {
	if err := validatePlugin(plugin); err != nil {
		return fmt.Errorf("rejected plugin %q: %w", plugin.Manifest.BotID, err)
	}

	l.registry.Register(plugin.Bot)
	return nil
}

func validatePlugin(plugin Plugin) error {
	bot := plugin.Bot
	if bot == nil {
		return fmt.Errorf("plugin carries no bot definition")
	}
	if bot.ID == "" {
		return fmt.Errorf("bot definition has an empty id")
	}
	if plugin.Manifest.BotID != bot.ID {
		return fmt.Errorf("manifest bot id %q does not match bot definition id %q", plugin.Manifest.BotID, bot.ID)
	}

	declared := make(map[string]bool, len(bot.Permissions))
	for _, perm := range bot.Permissions {
		declared[perm] = true
	}

	for event := range bot.EventHandlers {
		trigger, known := models.EventTriggers[event]
		if !known {
			return fmt.Errorf("bot handles unknown event %q", event)
		}
		if !bot.SubscribesTo(trigger) {
			return fmt.Errorf("bot handles event %q but does not declare trigger %q", event, trigger)
		}
	}

	seen := make(map[string]bool, len(bot.Commands))
	for _, cmd := range bot.Commands {
		if cmd.Name == "" {
			return fmt.Errorf("bot declares a command with an empty name")
		}
		if seen[cmd.Name] {
			return fmt.Errorf("bot declares duplicate command %q", cmd.Name)
		}
		seen[cmd.Name] = true

		for _, perm := range cmd.Permissions {
			if !declared[perm] {
				return fmt.Errorf("command %q requires permission %q the bot does not declare", cmd.Name, perm)
			}
		}
	}

	return nil
}
