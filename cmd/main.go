package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	botkit "colloquium/bots"
	"colloquium/bots/builtin"
	anthropicclient "colloquium/clients/anthropic"
	referencesclient "colloquium/clients/references"
	similarityclient "colloquium/clients/similarity"
	"colloquium/clients/socketio"
	"colloquium/config"
	"colloquium/db"
	"colloquium/handlers"
	"colloquium/middleware"
	"colloquium/models"
	"colloquium/services/botinstallations"
	"colloquium/services/botregistry"
	"colloquium/services/commands"
	"colloquium/services/conversations"
	"colloquium/services/decisions"
	"colloquium/services/files"
	"colloquium/services/journals"
	"colloquium/services/manuscripts"
	"colloquium/services/mentions"
	"colloquium/services/reviews"
	"colloquium/services/scheduler"
	"colloquium/services/txmanager"
	"colloquium/services/users"
	botsusecase "colloquium/usecases/bots"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Initialize repositories with shared connection
	manuscriptsRepo := db.NewPostgresManuscriptsRepository(dbConn, cfg.DatabaseSchema)
	reviewsRepo := db.NewPostgresReviewsRepository(dbConn, cfg.DatabaseSchema)
	conversationsRepo := db.NewPostgresConversationsRepository(dbConn, cfg.DatabaseSchema)
	decisionsRepo := db.NewPostgresDecisionsRepository(dbConn, cfg.DatabaseSchema)
	installationsRepo := db.NewPostgresBotInstallationsRepository(dbConn, cfg.DatabaseSchema)
	journalsRepo := db.NewPostgresJournalsRepository(dbConn, cfg.DatabaseSchema)
	usersRepo := db.NewPostgresUsersRepository(dbConn, cfg.DatabaseSchema)
	filesRepo := db.NewPostgresFilesRepository(dbConn, cfg.DatabaseSchema)
	storageRepo := db.NewPostgresBotStorageRepository(dbConn, cfg.DatabaseSchema)

	txManager := txmanager.NewTransactionManager(dbConn)

	usersService := users.NewUsersService(usersRepo)
	authMiddleware := middleware.NewClerkAuthMiddleware(usersService, cfg.ClerkConfig.SecretKey)

	// Realtime connections authenticate with the same user JWTs as the
	// HTTP API
	realtimeClient := socketio.NewRealtimeClient(func(token string) (string, error) {
		return authMiddleware.VerifyUserToken(context.Background(), token)
	})

	manuscriptsService := manuscripts.NewManuscriptsService(manuscriptsRepo)
	reviewsService := reviews.NewReviewsService(reviewsRepo, txManager)
	conversationsService := conversations.NewConversationsService(conversationsRepo, realtimeClient)
	decisionsService := decisions.NewDecisionsService(decisionsRepo)
	journalsService := journals.NewJournalsService(journalsRepo)
	filesService := files.NewFilesService(filesRepo)
	registry := botregistry.NewBotRegistryService()
	installationsService := botinstallations.NewBotInstallationsService(installationsRepo, registry)

	// Load the built-in bots
	var analyzer builtin.ContentAnalyzer
	if cfg.AnthropicConfig.IsConfigured() {
		analyzer = anthropicclient.NewOverlapAnalyzer(cfg.AnthropicConfig.APIKey)
	}
	var scanner builtin.SimilarityScanner
	if cfg.SimilarityConfig.IsConfigured() {
		scanner = similarityclient.NewClient(cfg.SimilarityConfig.BaseURL, cfg.SimilarityConfig.APIKey)
	} else {
		scanner = similarityclient.NewUnconfigured()
	}
	loader := botkit.NewLoader(registry)
	loaded, err := loader.LoadFrom(context.Background(), builtin.Source(builtin.Deps{
		Reviews:    reviewsService,
		Users:      usersService,
		References: referencesclient.NewClient(cfg.BaseURL),
		Similarity: scanner,
		Analyzer:   analyzer,
	}))
	if err != nil {
		return err
	}
	log.Printf("🔌 Loaded %d built-in bots", loaded)

	tokens := botkit.NewServiceTokenIssuer(
		cfg.BotPlatformConfig.TokenSigningSecret,
		cfg.BotPlatformConfig.TokenTTL,
	)
	executor := botsusecase.NewExecutor(
		registry,
		installationsService,
		journalsService,
		tokens,
		cfg.BotPlatformConfig.ExecutionTimeout,
		cfg.BotPlatformConfig.EventWorkers,
	)
	defer executor.Stop()

	actionProcessor := botsusecase.NewActionProcessor(
		manuscriptsService,
		reviewsService,
		conversationsService,
		decisionsService,
		decisions.NewLoggingDecisionNotifier(),
	)
	messagesUseCase := botsusecase.NewMessagesUseCase(
		mentions.NewMentionsService(registry, conversationsService),
		commands.NewParser(),
		registry,
		conversationsService,
		executor,
		actionProcessor,
	)

	// Scheduled runs go through the same event dispatch as any other
	// system trigger
	schedulerService := scheduler.NewSchedulerService(installationsService,
		func(ctx context.Context, journalID, botID string, config models.JSONMap) {
			meta := botsusecase.Invocation{
				JournalID: journalID,
				Trigger:   models.TriggerScheduled,
			}
			result := executor.ExecuteEvent(ctx, botID, "SCHEDULED_RUN", map[string]any{"config": config}, meta)
			if len(result.Errors) > 0 {
				log.Printf("⚠️ Scheduled run of %s for journal %s reported errors: %v", botID, journalID, result.Errors)
			}
		})
	journalIDs, err := installationsRepo.ListJournalIDs(context.Background())
	if err != nil {
		return err
	}
	for _, journalID := range journalIDs {
		if err := schedulerService.Sync(context.Background(), journalID); err != nil {
			log.Printf("⚠️ Failed to sync schedules for journal %s: %v", journalID, err)
		}
	}
	schedulerService.Start()
	defer schedulerService.Stop()

	botAuthMiddleware := middleware.NewBotAuthMiddleware(tokens)
	messagesHandler := handlers.NewMessagesHTTPHandler(messagesUseCase, conversationsService, journalsService)
	botAdminHandler := handlers.NewBotAdminHTTPHandler(registry, installationsService, schedulerService)
	botAPIHandler := handlers.NewBotAPIHTTPHandler(
		manuscriptsService,
		filesService,
		usersService,
		reviewsService,
		registry,
		executor,
		storageRepo,
	)

	router := mux.NewRouter()
	realtimeClient.RegisterWithRouter(router)

	botAPIRouter := router.PathPrefix("/api/bot").Subrouter()
	botAPIHandler.SetupEndpoints(botAPIRouter, botAuthMiddleware)

	apiRouter := router.PathPrefix("/api").Subrouter()
	messagesHandler.SetupEndpoints(apiRouter, authMiddleware)
	botAdminHandler.SetupEndpoints(apiRouter, authMiddleware)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Printf("❌ Failed to write health check response: %v", err)
		}
	}).Methods("GET")

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

func handleGracefulShutdown(server *http.Server) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
