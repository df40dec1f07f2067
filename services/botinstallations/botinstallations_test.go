package botinstallations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colloquium/core"
	"colloquium/models"
	"colloquium/services/botregistry"
)

// fakeInstallationsRepo keeps installations in memory, keyed by bot id
type fakeInstallationsRepo struct {
	installations map[string]*models.BotInstallation
}

func newFakeInstallationsRepo() *fakeInstallationsRepo {
	return &fakeInstallationsRepo{installations: make(map[string]*models.BotInstallation)}
}

func (f *fakeInstallationsRepo) CreateInstallation(_ context.Context, installation *models.BotInstallation) error {
	f.installations[installation.BotID] = installation
	return nil
}

func (f *fakeInstallationsRepo) GetInstallationByBotID(_ context.Context, _, botID string) (*models.BotInstallation, error) {
	installation, ok := f.installations[botID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return installation, nil
}

func (f *fakeInstallationsRepo) ListInstallations(_ context.Context, _ string) ([]*models.BotInstallation, error) {
	var out []*models.BotInstallation
	for _, installation := range f.installations {
		out = append(out, installation)
	}
	return out, nil
}

func (f *fakeInstallationsRepo) UpdateEnabled(_ context.Context, _, botID string, isEnabled bool) (*models.BotInstallation, error) {
	installation, ok := f.installations[botID]
	if !ok {
		return nil, core.ErrNotFound
	}
	installation.IsEnabled = isEnabled
	return installation, nil
}

func (f *fakeInstallationsRepo) UpdateConfig(_ context.Context, _, botID string, config models.JSONMap) (*models.BotInstallation, error) {
	installation, ok := f.installations[botID]
	if !ok {
		return nil, core.ErrNotFound
	}
	installation.Config = config
	return installation, nil
}

func newTestService(repo *fakeInstallationsRepo) *BotInstallationsService {
	registry := botregistry.NewBotRegistryService()
	registry.Register(&models.BotDefinition{ID: "bot-editorial", Version: "1.0.0"})
	registry.Register(&models.BotDefinition{ID: "bot-reference-checker", Version: "1.0.0"})
	return NewBotInstallationsService(repo, registry)
}

func TestBotInstallationsService_InstallBot(t *testing.T) {
	repo := newFakeInstallationsRepo()
	service := newTestService(repo)
	ctx := context.Background()

	t.Run("installs registered bot enabled by default", func(t *testing.T) {
		installation, err := service.InstallBot(ctx, "jrn_1", "bot-editorial", models.JSONMap{"notify": true})
		require.NoError(t, err)
		assert.True(t, installation.IsEnabled)
		assert.Equal(t, "bot-editorial", installation.BotID)
		assert.Equal(t, true, installation.Config["notify"])
	})

	t.Run("rejects unregistered bot", func(t *testing.T) {
		_, err := service.InstallBot(ctx, "jrn_1", "bot-unknown", nil)
		assert.Error(t, err)
	})
}

func TestBotInstallationsService_RequiredBots(t *testing.T) {
	repo := newFakeInstallationsRepo()
	service := newTestService(repo)
	ctx := context.Background()

	repo.installations["bot-editorial"] = &models.BotInstallation{
		ID:         core.NewID("inst"),
		BotID:      "bot-editorial",
		JournalID:  "jrn_1",
		IsEnabled:  true,
		IsRequired: true,
	}

	t.Run("rejects uninstall of required bot", func(t *testing.T) {
		err := service.UninstallBot(ctx, "jrn_1", "bot-editorial")
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrRequiredBot))
		assert.True(t, repo.installations["bot-editorial"].IsEnabled)
	})

	t.Run("rejects disable of required bot", func(t *testing.T) {
		_, err := service.SetEnabled(ctx, "jrn_1", "bot-editorial", false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrRequiredBot))
	})

	t.Run("enable of required bot is allowed", func(t *testing.T) {
		_, err := service.SetEnabled(ctx, "jrn_1", "bot-editorial", true)
		assert.NoError(t, err)
	})
}

func TestBotInstallationsService_SoftUninstall(t *testing.T) {
	repo := newFakeInstallationsRepo()
	service := newTestService(repo)
	ctx := context.Background()

	_, err := service.InstallBot(ctx, "jrn_1", "bot-reference-checker", nil)
	require.NoError(t, err)

	require.NoError(t, service.UninstallBot(ctx, "jrn_1", "bot-reference-checker"))

	// Row is retained, just disabled
	maybeInstallation, err := service.GetInstallation(ctx, "jrn_1", "bot-reference-checker")
	require.NoError(t, err)
	require.True(t, maybeInstallation.IsPresent())
	assert.False(t, maybeInstallation.MustGet().IsEnabled)
}

func TestBotInstallationsService_GetInstallation_NotFound(t *testing.T) {
	service := newTestService(newFakeInstallationsRepo())

	maybeInstallation, err := service.GetInstallation(context.Background(), "jrn_1", "bot-editorial")
	require.NoError(t, err)
	assert.False(t, maybeInstallation.IsPresent())
}
