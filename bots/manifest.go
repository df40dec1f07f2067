package bots

import (
	"context"

	"colloquium/models"
)

// Manifest describes a bot plugin package. The loader validates it against
// the bot definition the plugin ships before anything reaches the registry.
type Manifest struct {
	BotID         string         `json:"bot_id"`
	Name          string         `json:"name"`
	Version       string         `json:"version"`
	Description   string         `json:"description"`
	Permissions   []string       `json:"permissions"`
	DefaultConfig models.JSONMap `json:"default_config"`
}

// Plugin is one loadable unit: a manifest plus the bot definition it declares
type Plugin struct {
	Manifest Manifest
	Bot      *models.BotDefinition
}

// PluginSource yields plugins for the loader. Discovery strategy (static
// compiled-in list, filesystem scan, database-tracked install list) is the
// source's concern; the loader only validates and registers.
type PluginSource interface {
	Plugins(ctx context.Context) ([]Plugin, error)
}

// StaticPluginSource serves a fixed, compiled-in plugin list
type StaticPluginSource struct {
	plugins []Plugin
}

func NewStaticPluginSource(plugins ...Plugin) *StaticPluginSource {
	return &StaticPluginSource{plugins: plugins}
}

func (s *StaticPluginSource) Plugins(_ context.Context) ([]Plugin, error) {
	return s.plugins, nil
}
