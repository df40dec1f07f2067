package bots

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gammazero/workerpool"

	"colloquium/appctx"
	botkit "colloquium/bots"
	"colloquium/core"
	"colloquium/models"
	"colloquium/services"
)

// Invocation carries the ambient identities of one bot invocation
type Invocation struct {
	JournalID      string
	ManuscriptID   string
	ConversationID string
	MessageID      string
	UserID         string
	UserRole       models.UserRole
	Journal        *models.Journal
	Trigger        models.TriggerKind
}

// Executor runs one bot invocation through resolve, authorize, build-context,
// invoke and normalize. It is stateless per call: two concurrent invocations
// of the same bot and manuscript are not serialized here.
type Executor struct {
	registry      services.BotRegistryService
	installations services.BotInstallationsService
	journals      services.JournalsService
	tokens        *botkit.ServiceTokenIssuer
	timeout       time.Duration
	pool          *workerpool.WorkerPool
}

func NewExecutor(
	registry services.BotRegistryService,
	installations services.BotInstallationsService,
	journals services.JournalsService,
	tokens *botkit.ServiceTokenIssuer,
	timeout time.Duration,
	eventWorkers int,
) *Executor {
	return &Executor{
		registry:      registry,
		installations: installations,
		journals:      journals,
		tokens:        tokens,
		timeout:       timeout,
		pool:          workerpool.New(eventWorkers),
	}
}

// Execute runs a parsed command through the invocation pipeline. It always
// returns a normalized BotResult: resolution and authorization failures
// produce synthetic results without the handler ever being invoked, and
// handler errors, panics and timeouts are converted into the Errors slice
// with redacted, user-safe messages.
func (e *Executor) Execute(ctx context.Context, parsed *models.ParsedCommand, meta Invocation) *models.BotResult {
	if parsed.IsUnrecognized {
		target := "@" + parsed.BotID
		if parsed.Command != "" {
			target += " " + parsed.Command
		}
		return &models.BotResult{
			Messages: []models.BotMessage{
				{Content: fmt.Sprintf("I don't recognize `%s`. Mention a bot followed by one of its commands.", target)},
			},
			Errors: []string{fmt.Sprintf("unrecognized: %s", target)},
		}
	}

	maybeBot := e.registry.GetBot(parsed.BotID)
	if !maybeBot.IsPresent() {
		return &models.BotResult{
			Messages: []models.BotMessage{
				{Content: fmt.Sprintf("I don't recognize `@%s`.", parsed.BotID)},
			},
			Errors: []string{fmt.Sprintf("unrecognized: @%s", parsed.BotID)},
		}
	}
	bot := maybeBot.MustGet()

	command, ok := bot.Command(parsed.Command)
	if !ok {
		return &models.BotResult{
			Messages: []models.BotMessage{
				{Content: fmt.Sprintf("@%s has no `%s` command.", bot.ID, parsed.Command)},
			},
			Errors: []string{fmt.Sprintf("unrecognized: @%s %s", bot.ID, parsed.Command)},
		}
	}

	installation, denied := e.authorize(ctx, bot, command.Permissions, meta.JournalID)
	if denied != nil {
		return denied
	}

	ec, err := e.buildContext(ctx, bot, installation, meta)
	if err != nil {
		log.Printf("❌ Failed to build execution context for bot %s: %v", bot.ID, err)
		return executionFailureResult(bot.ID)
	}

	return e.invoke(ctx, bot.ID, func(invokeCtx context.Context) (*models.BotResult, error) {
		return command.Execute(invokeCtx, parsed.Parameters, ec)
	})
}

// ExecuteEvent delivers one event to one bot. Used by the scheduler and by
// DispatchEvent's fan-out; bots not subscribed to the event get an empty
// result without their handler being looked at.
func (e *Executor) ExecuteEvent(ctx context.Context, botID, eventName string, payload map[string]any, meta Invocation) *models.BotResult {
	maybeBot := e.registry.GetBot(botID)
	if !maybeBot.IsPresent() {
		return &models.BotResult{Errors: []string{fmt.Sprintf("unrecognized: @%s", botID)}}
	}
	bot := maybeBot.MustGet()

	handler, ok := bot.EventHandlers[eventName]
	if !ok {
		return &models.BotResult{}
	}

	installation, denied := e.authorize(ctx, bot, nil, meta.JournalID)
	if denied != nil {
		return denied
	}

	if trigger, ok := models.EventTriggers[eventName]; ok {
		meta.Trigger = trigger
	}
	ec, err := e.buildContext(ctx, bot, installation, meta)
	if err != nil {
		log.Printf("❌ Failed to build execution context for bot %s: %v", bot.ID, err)
		return executionFailureResult(bot.ID)
	}

	return e.invoke(ctx, bot.ID, func(invokeCtx context.Context) (*models.BotResult, error) {
		return handler(invokeCtx, payload, ec)
	})
}

// EventResult pairs a fan-out result with the bot that produced it
type EventResult struct {
	BotID  string
	Result *models.BotResult
}

// DispatchEvent fans an event out to every installed, enabled bot that
// handles it, running invocations on the worker pool. Results come back in
// no particular order; event invocations are not retried here.
func (e *Executor) DispatchEvent(ctx context.Context, eventName string, payload map[string]any, meta Invocation) []EventResult {
	installations, err := e.installations.ListInstallations(ctx, meta.JournalID)
	if err != nil {
		log.Printf("❌ Failed to list installations for event %s dispatch: %v", eventName, err)
		return nil
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []EventResult
	)

	for _, installation := range installations {
		if !installation.IsEnabled {
			continue
		}
		maybeBot := e.registry.GetBot(installation.BotID)
		if !maybeBot.IsPresent() {
			continue
		}
		if _, ok := maybeBot.MustGet().EventHandlers[eventName]; !ok {
			continue
		}

		botID := installation.BotID
		wg.Add(1)
		e.pool.Submit(func() {
			defer wg.Done()
			result := e.ExecuteEvent(ctx, botID, eventName, payload, meta)
			mu.Lock()
			results = append(results, EventResult{BotID: botID, Result: result})
			mu.Unlock()
		})
	}

	wg.Wait()
	return results
}

// Stop drains the event worker pool
func (e *Executor) Stop() {
	e.pool.StopWait()
}

// authorize checks the installation gate: installed, enabled, and the
// command's permission needs covered by the bot's declared set. Denials are
// generic toward chat; the specific reason is only logged.
func (e *Executor) authorize(ctx context.Context, bot *models.BotDefinition, required []string, journalID string) (*models.BotInstallation, *models.BotResult) {
	maybeInstallation, err := e.installations.GetInstallation(ctx, journalID, bot.ID)
	if err != nil {
		log.Printf("❌ Failed to look up installation of bot %s for journal %s: %v", bot.ID, journalID, err)
		return nil, executionFailureResult(bot.ID)
	}
	if !maybeInstallation.IsPresent() {
		log.Printf("⚠️ %v", &core.PermissionError{BotID: bot.ID, Reason: fmt.Sprintf("not installed for journal %s", journalID)})
		return nil, permissionDeniedResult(bot.ID)
	}
	installation := maybeInstallation.MustGet()
	if !installation.IsEnabled {
		log.Printf("⚠️ %v", &core.PermissionError{BotID: bot.ID, Reason: fmt.Sprintf("disabled for journal %s", journalID)})
		return nil, permissionDeniedResult(bot.ID)
	}

	// The loader already rejects commands whose permissions exceed the
	// bot's declared set; this check also covers bots registered on the
	// registry directly, without passing through the loader.
	for _, permission := range required {
		if !bot.HasPermission(permission) {
			log.Printf("⚠️ %v", &core.PermissionError{BotID: bot.ID, Reason: fmt.Sprintf("command requires permission %s the bot does not hold", permission)})
			return nil, permissionDeniedResult(bot.ID)
		}
	}

	return installation, nil
}

func (e *Executor) buildContext(ctx context.Context, bot *models.BotDefinition, installation *models.BotInstallation, meta Invocation) (*models.BotExecutionContext, error) {
	token, err := e.tokens.Mint(bot.ID, meta.ManuscriptID, bot.Permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to mint service token: %w", err)
	}

	journal, err := e.journalSnapshot(ctx, meta)
	if err != nil {
		return nil, err
	}

	trigger := meta.Trigger
	if trigger == "" {
		trigger = models.TriggerMention
	}

	return &models.BotExecutionContext{
		ManuscriptID:   meta.ManuscriptID,
		ConversationID: meta.ConversationID,
		TriggeredBy: models.TriggeredBy{
			MessageID: meta.MessageID,
			UserID:    meta.UserID,
			UserRole:  meta.UserRole,
			Trigger:   trigger,
		},
		Journal:      journal,
		Config:       installation.Config,
		ServiceToken: token,
	}, nil
}

// journalSnapshot resolves the journal settings snapshot for the execution
// context. A snapshot already carried by the invocation or the request
// context is reused; otherwise it is loaded from the journals service.
func (e *Executor) journalSnapshot(ctx context.Context, meta Invocation) (*models.Journal, error) {
	if meta.Journal != nil {
		return meta.Journal, nil
	}
	if journal, ok := appctx.GetJournal(ctx); ok && journal.ID == meta.JournalID {
		return journal, nil
	}
	if meta.JournalID == "" {
		return nil, nil
	}

	maybeJournal, err := e.journals.GetJournalByID(ctx, meta.JournalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal %s: %w", meta.JournalID, err)
	}
	if !maybeJournal.IsPresent() {
		log.Printf("⚠️ Journal %s not found while building execution context", meta.JournalID)
		return nil, nil
	}
	return maybeJournal.MustGet(), nil
}

// invoke runs fn under the execution deadline with panic recovery. On
// timeout the handler's eventual completion is discarded; the buffered
// channel keeps the goroutine from leaking.
func (e *Executor) invoke(ctx context.Context, botID string, fn func(context.Context) (*models.BotResult, error)) *models.BotResult {
	invokeCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		result *models.BotResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("❌ Bot %s handler panicked: %v", botID, r)
				done <- outcome{err: fmt.Errorf("handler panicked")}
			}
		}()
		result, err := fn(invokeCtx)
		done <- outcome{result: result, err: err}
	}()

	select {
	case <-invokeCtx.Done():
		// the caller going away is not the bot's fault; only an expired
		// deadline counts as a timeout
		if !errors.Is(invokeCtx.Err(), context.DeadlineExceeded) {
			log.Printf("⚠️ Bot %s invocation canceled: %v", botID, context.Cause(invokeCtx))
			return executionFailureResult(botID)
		}
		log.Printf("⚠️ Bot %s invocation timed out after %s", botID, e.timeout)
		return &models.BotResult{
			Messages: []models.BotMessage{
				{Content: fmt.Sprintf("@%s took too long to respond and was stopped.", botID)},
			},
			Errors: []string{"timeout"},
		}

	case out := <-done:
		if out.err != nil {
			log.Printf("❌ Bot %s invocation failed: %v", botID, out.err)
			return executionFailureResult(botID)
		}
		if out.result == nil {
			return &models.BotResult{}
		}
		if len(out.result.Errors) > 0 {
			log.Printf("⚠️ Bot %s returned %d errors", botID, len(out.result.Errors))
		}
		return out.result
	}
}

// executionFailureResult is the user-safe shape for internal failures; the
// raw error never reaches chat.
func executionFailureResult(botID string) *models.BotResult {
	return &models.BotResult{
		Messages: []models.BotMessage{
			{Content: fmt.Sprintf("@%s ran into a problem and couldn't finish. The team has been notified.", botID)},
		},
		Errors: []string{"execution_failure"},
	}
}

func permissionDeniedResult(botID string) *models.BotResult {
	return &models.BotResult{
		Messages: []models.BotMessage{
			{Content: fmt.Sprintf("@%s isn't available here.", botID)},
		},
		Errors: []string{"permission_denied"},
	}
}
