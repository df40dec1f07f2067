package bots

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"colloquium/appctx"
	botkit "colloquium/bots"
	"colloquium/models"
	"colloquium/services"
	"colloquium/services/botregistry"
)

func testIssuer() *botkit.ServiceTokenIssuer {
	return botkit.NewServiceTokenIssuer("test-signing-secret", 5*time.Minute)
}

func noJournals() *services.MockJournalsService {
	journals := new(services.MockJournalsService)
	journals.On("GetJournalByID", mock.Anything, mock.Anything).
		Return(mo.None[*models.Journal](), nil).Maybe()
	return journals
}

func testInvocation() Invocation {
	return Invocation{
		JournalID:      "j_1",
		ManuscriptID:   "ms_1",
		ConversationID: "conv_1",
		MessageID:      "msg_1",
		UserID:         "u_1",
		UserRole:       models.UserRoleChiefEditor,
	}
}

func installationFor(botID string, enabled bool) *models.BotInstallation {
	return &models.BotInstallation{
		ID:        "bi_" + botID,
		BotID:     botID,
		JournalID: "j_1",
		IsEnabled: enabled,
		Config:    models.JSONMap{},
	}
}

func registryWith(bot *models.BotDefinition) *botregistry.BotRegistryService {
	registry := botregistry.NewBotRegistryService()
	registry.Register(bot)
	return registry
}

func TestExecutorExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled bot never invokes handler", func(t *testing.T) {
		var calls atomic.Int32
		bot := &models.BotDefinition{
			ID: "bot-spy",
			Commands: []models.CommandSpec{
				{
					Name: "run",
					Execute: func(_ context.Context, _ map[string]any, _ *models.BotExecutionContext) (*models.BotResult, error) {
						calls.Add(1)
						return &models.BotResult{}, nil
					},
				},
			},
		}

		installations := new(services.MockBotInstallationsService)
		installations.On("GetInstallation", mock.Anything, "j_1", "bot-spy").
			Return(mo.Some(installationFor("bot-spy", false)), nil)

		executor := NewExecutor(registryWith(bot), installations, noJournals(), testIssuer(), time.Second, 2)
		defer executor.Stop()

		result := executor.Execute(ctx, &models.ParsedCommand{BotID: "bot-spy", Command: "run"}, testInvocation())

		assert.Equal(t, int32(0), calls.Load())
		require.NotEmpty(t, result.Errors)
		assert.Contains(t, result.Errors[0], "permission_denied")
		require.Len(t, result.Messages, 1)
	})

	t.Run("uninstalled bot is denied", func(t *testing.T) {
		bot := &models.BotDefinition{
			ID:       "bot-x",
			Commands: []models.CommandSpec{{Name: "run", Execute: emptyHandler}},
		}
		installations := new(services.MockBotInstallationsService)
		installations.On("GetInstallation", mock.Anything, "j_1", "bot-x").
			Return(mo.None[*models.BotInstallation](), nil)

		executor := NewExecutor(registryWith(bot), installations, noJournals(), testIssuer(), time.Second, 2)
		defer executor.Stop()

		result := executor.Execute(ctx, &models.ParsedCommand{BotID: "bot-x", Command: "run"}, testInvocation())
		require.NotEmpty(t, result.Errors)
		assert.Equal(t, "permission_denied", result.Errors[0])
	})

	t.Run("unrecognized command yields synthetic result", func(t *testing.T) {
		installations := new(services.MockBotInstallationsService)
		executor := NewExecutor(botregistry.NewBotRegistryService(), installations, noJournals(), testIssuer(), time.Second, 2)
		defer executor.Stop()

		result := executor.Execute(ctx, &models.ParsedCommand{BotID: "bot-ghost", Command: "boo", IsUnrecognized: true}, testInvocation())

		require.NotEmpty(t, result.Errors)
		assert.Contains(t, result.Errors[0], "unrecognized")
		require.Len(t, result.Messages, 1)
		installations.AssertNotCalled(t, "GetInstallation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("panicking handler is normalized", func(t *testing.T) {
		bot := &models.BotDefinition{
			ID: "bot-panic",
			Commands: []models.CommandSpec{
				{
					Name: "run",
					Execute: func(_ context.Context, _ map[string]any, _ *models.BotExecutionContext) (*models.BotResult, error) {
						panic("secret internal detail: db password is hunter2")
					},
				},
			},
		}
		installations := new(services.MockBotInstallationsService)
		installations.On("GetInstallation", mock.Anything, "j_1", "bot-panic").
			Return(mo.Some(installationFor("bot-panic", true)), nil)

		executor := NewExecutor(registryWith(bot), installations, noJournals(), testIssuer(), time.Second, 2)
		defer executor.Stop()

		result := executor.Execute(ctx, &models.ParsedCommand{BotID: "bot-panic", Command: "run"}, testInvocation())

		require.NotEmpty(t, result.Errors)
		for _, message := range result.Messages {
			assert.NotContains(t, message.Content, "hunter2")
		}
		for _, errText := range result.Errors {
			assert.NotContains(t, errText, "hunter2")
		}
	})

	t.Run("slow handler times out and its late result is discarded", func(t *testing.T) {
		bot := &models.BotDefinition{
			ID: "bot-slow",
			Commands: []models.CommandSpec{
				{
					Name: "run",
					Execute: func(_ context.Context, _ map[string]any, _ *models.BotExecutionContext) (*models.BotResult, error) {
						time.Sleep(200 * time.Millisecond)
						return &models.BotResult{Messages: []models.BotMessage{{Content: "too late"}}}, nil
					},
				},
			},
		}
		installations := new(services.MockBotInstallationsService)
		installations.On("GetInstallation", mock.Anything, "j_1", "bot-slow").
			Return(mo.Some(installationFor("bot-slow", true)), nil)

		executor := NewExecutor(registryWith(bot), installations, noJournals(), testIssuer(), 20*time.Millisecond, 2)
		defer executor.Stop()

		result := executor.Execute(ctx, &models.ParsedCommand{BotID: "bot-slow", Command: "run"}, testInvocation())

		require.NotEmpty(t, result.Errors)
		assert.Equal(t, "timeout", result.Errors[0])
		for _, message := range result.Messages {
			assert.NotContains(t, message.Content, "too late")
		}
	})

	t.Run("successful handler receives minted service token", func(t *testing.T) {
		var seenToken string
		bot := &models.BotDefinition{
			ID:          "bot-ok",
			Permissions: []string{models.PermissionReadManuscript},
			Commands: []models.CommandSpec{
				{
					Name: "run",
					Execute: func(_ context.Context, _ map[string]any, ec *models.BotExecutionContext) (*models.BotResult, error) {
						seenToken = ec.ServiceToken
						return &models.BotResult{Messages: []models.BotMessage{{Content: "done"}}}, nil
					},
				},
			},
		}
		installations := new(services.MockBotInstallationsService)
		installations.On("GetInstallation", mock.Anything, "j_1", "bot-ok").
			Return(mo.Some(installationFor("bot-ok", true)), nil)

		issuer := testIssuer()
		executor := NewExecutor(registryWith(bot), installations, noJournals(), issuer, time.Second, 2)
		defer executor.Stop()

		result := executor.Execute(ctx, &models.ParsedCommand{BotID: "bot-ok", Command: "run"}, testInvocation())

		assert.Empty(t, result.Errors)
		claims, err := issuer.Verify(seenToken)
		require.NoError(t, err)
		assert.Equal(t, "bot-ok", claims.BotID)
		assert.Equal(t, "ms_1", claims.ManuscriptID)
		assert.Equal(t, []string{models.PermissionReadManuscript}, claims.Permissions)
	})
}

func TestExecutorDispatchEvent(t *testing.T) {
	ctx := context.Background()

	subscribed := &models.BotDefinition{
		ID: "bot-sub",
		EventHandlers: map[string]models.EventHandler{
			"REVIEWER_ASSIGNED": func(_ context.Context, _ map[string]any, ec *models.BotExecutionContext) (*models.BotResult, error) {
				return &models.BotResult{
					Messages: []models.BotMessage{{Content: string(ec.TriggeredBy.Trigger)}},
				}, nil
			},
		},
	}
	unsubscribed := &models.BotDefinition{ID: "bot-quiet"}

	registry := botregistry.NewBotRegistryService()
	registry.Register(subscribed)
	registry.Register(unsubscribed)

	installations := new(services.MockBotInstallationsService)
	installations.On("ListInstallations", mock.Anything, "j_1").Return([]*models.BotInstallation{
		installationFor("bot-sub", true),
		installationFor("bot-quiet", true),
	}, nil)
	installations.On("GetInstallation", mock.Anything, "j_1", "bot-sub").
		Return(mo.Some(installationFor("bot-sub", true)), nil)

	executor := NewExecutor(registry, installations, noJournals(), testIssuer(), time.Second, 2)
	defer executor.Stop()

	results := executor.DispatchEvent(ctx, "REVIEWER_ASSIGNED", map[string]any{"reviewer_id": "u_2"}, testInvocation())

	require.Len(t, results, 1)
	assert.Equal(t, "bot-sub", results[0].BotID)
	require.Len(t, results[0].Result.Messages, 1)
	// the trigger kind is derived from the event name
	assert.Equal(t, string(models.TriggerReviewerAssigned), results[0].Result.Messages[0].Content)
}

func emptyHandler(_ context.Context, _ map[string]any, _ *models.BotExecutionContext) (*models.BotResult, error) {
	return &models.BotResult{}, nil
}

func TestExecutorJournalSnapshot(t *testing.T) {
	ctx := context.Background()

	snapshotBot := func(seen **models.Journal) *models.BotDefinition {
		return &models.BotDefinition{
			ID: "bot-journal",
			Commands: []models.CommandSpec{
				{
					Name: "run",
					Execute: func(_ context.Context, _ map[string]any, ec *models.BotExecutionContext) (*models.BotResult, error) {
						*seen = ec.Journal
						return &models.BotResult{}, nil
					},
				},
			},
		}
	}

	t.Run("loads the journal settings snapshot into the execution context", func(t *testing.T) {
		var seen *models.Journal
		installations := new(services.MockBotInstallationsService)
		installations.On("GetInstallation", mock.Anything, "j_1", "bot-journal").
			Return(mo.Some(installationFor("bot-journal", true)), nil)
		journals := new(services.MockJournalsService)
		journals.On("GetJournalByID", mock.Anything, "j_1").
			Return(mo.Some(&models.Journal{
				ID:       "j_1",
				Name:     "Journal of Examples",
				Settings: models.JSONMap{"review_rounds": float64(2)},
			}), nil)

		executor := NewExecutor(registryWith(snapshotBot(&seen)), installations, journals, testIssuer(), time.Second, 2)
		defer executor.Stop()

		result := executor.Execute(ctx, &models.ParsedCommand{BotID: "bot-journal", Command: "run"}, testInvocation())

		assert.Empty(t, result.Errors)
		require.NotNil(t, seen)
		assert.Equal(t, "Journal of Examples", seen.Name)
		assert.Equal(t, float64(2), seen.Settings["review_rounds"])
	})

	t.Run("reuses a snapshot already on the request context", func(t *testing.T) {
		var seen *models.Journal
		installations := new(services.MockBotInstallationsService)
		installations.On("GetInstallation", mock.Anything, "j_1", "bot-journal").
			Return(mo.Some(installationFor("bot-journal", true)), nil)
		journals := new(services.MockJournalsService)

		executor := NewExecutor(registryWith(snapshotBot(&seen)), installations, journals, testIssuer(), time.Second, 2)
		defer executor.Stop()

		reqCtx := appctx.SetJournal(ctx, &models.Journal{ID: "j_1", Name: "Cached Journal"})
		result := executor.Execute(reqCtx, &models.ParsedCommand{BotID: "bot-journal", Command: "run"}, testInvocation())

		assert.Empty(t, result.Errors)
		require.NotNil(t, seen)
		assert.Equal(t, "Cached Journal", seen.Name)
		journals.AssertNotCalled(t, "GetJournalByID", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure never reaches the handler", func(t *testing.T) {
		var seen *models.Journal
		installations := new(services.MockBotInstallationsService)
		installations.On("GetInstallation", mock.Anything, "j_1", "bot-journal").
			Return(mo.Some(installationFor("bot-journal", true)), nil)
		journals := new(services.MockJournalsService)
		journals.On("GetJournalByID", mock.Anything, "j_1").
			Return(mo.None[*models.Journal](), fmt.Errorf("connection refused"))

		executor := NewExecutor(registryWith(snapshotBot(&seen)), installations, journals, testIssuer(), time.Second, 2)
		defer executor.Stop()

		result := executor.Execute(ctx, &models.ParsedCommand{BotID: "bot-journal", Command: "run"}, testInvocation())

		require.NotEmpty(t, result.Errors)
		assert.Equal(t, "execution_failure", result.Errors[0])
		for _, message := range result.Messages {
			assert.NotContains(t, message.Content, "connection refused")
		}
	})
}

func TestCanceledInvocationIsNotATimeout(t *testing.T) {
	bot := &models.BotDefinition{
		ID: "bot-block",
		Commands: []models.CommandSpec{
			{
				Name: "run",
				Execute: func(ctx context.Context, _ map[string]any, _ *models.BotExecutionContext) (*models.BotResult, error) {
					<-ctx.Done()
					return nil, ctx.Err()
				},
			},
		},
	}
	installations := new(services.MockBotInstallationsService)
	installations.On("GetInstallation", mock.Anything, "j_1", "bot-block").
		Return(mo.Some(installationFor("bot-block", true)), nil)

	executor := NewExecutor(registryWith(bot), installations, noJournals(), testIssuer(), time.Minute, 2)
	defer executor.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result := executor.Execute(ctx, &models.ParsedCommand{BotID: "bot-block", Command: "run"}, testInvocation())

	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "execution_failure", result.Errors[0])
	assert.NotContains(t, result.Errors, "timeout")
}
