package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"colloquium/appctx"
	"colloquium/core"
	"colloquium/middleware"
	"colloquium/models"
	"colloquium/services"
	"colloquium/services/scheduler"
)

// BotAdminHTTPHandler serves the journal-facing bot management API: listing
// the catalog, installing, enabling and configuring bots. Any change that can
// affect schedules re-syncs the scheduler for the journal.
type BotAdminHTTPHandler struct {
	registry      services.BotRegistryService
	installations services.BotInstallationsService
	scheduler     *scheduler.SchedulerService
}

func NewBotAdminHTTPHandler(
	registry services.BotRegistryService,
	installations services.BotInstallationsService,
	schedulerService *scheduler.SchedulerService,
) *BotAdminHTTPHandler {
	return &BotAdminHTTPHandler{
		registry:      registry,
		installations: installations,
		scheduler:     schedulerService,
	}
}

type BotCommandListing struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
}

type BotListing struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Version     string              `json:"version"`
	Permissions []string            `json:"permissions"`
	Commands    []BotCommandListing `json:"commands"`
	Installed   bool                `json:"installed"`
	Enabled     bool                `json:"enabled"`
}

type InstallBotRequest struct {
	Config models.JSONMap `json:"config"`
}

type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type UpdateConfigRequest struct {
	Config models.JSONMap `json:"config"`
}

func (h *BotAdminHTTPHandler) HandleListBots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	journalID := mux.Vars(r)["journalID"]
	log.Printf("🤖 Listing bots for journal %s", journalID)

	user, ok := appctx.GetUser(ctx)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	log.Printf("✅ Bot catalog requested by user %s", user.ID)

	installations, err := h.installations.ListInstallations(ctx, journalID)
	if err != nil {
		log.Printf("❌ Failed to list installations: %v", err)
		http.Error(w, "failed to list installations", http.StatusInternalServerError)
		return
	}
	installed := make(map[string]*models.BotInstallation, len(installations))
	for _, installation := range installations {
		installed[installation.BotID] = installation
	}

	listings := []BotListing{}
	for _, bot := range h.registry.ListBots() {
		listing := BotListing{
			ID:          bot.ID,
			Name:        bot.Name,
			Description: bot.Description,
			Version:     bot.Version,
			Permissions: bot.Permissions,
		}
		for _, cmd := range bot.Commands {
			listing.Commands = append(listing.Commands, BotCommandListing{
				Name:        cmd.Name,
				Description: cmd.Description,
				Usage:       cmd.Usage,
			})
		}
		if installation, ok := installed[bot.ID]; ok {
			listing.Installed = true
			listing.Enabled = installation.IsEnabled
		}
		listings = append(listings, listing)
	}

	writeJSONResponse(w, http.StatusOK, listings)
}

func (h *BotAdminHTTPHandler) HandleListInstallations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	journalID := mux.Vars(r)["journalID"]
	log.Printf("🤖 Listing bot installations for journal %s", journalID)

	installations, err := h.installations.ListInstallations(ctx, journalID)
	if err != nil {
		log.Printf("❌ Failed to list installations: %v", err)
		http.Error(w, "failed to list installations", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, installations)
}

func (h *BotAdminHTTPHandler) HandleInstallBot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	journalID, botID := vars["journalID"], vars["botID"]
	log.Printf("🤖 Installing bot %s for journal %s", botID, journalID)

	var req InstallBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	installation, err := h.installations.InstallBot(ctx, journalID, botID, req.Config)
	if err != nil {
		log.Printf("❌ Failed to install bot %s: %v", botID, err)
		http.Error(w, "failed to install bot", http.StatusBadRequest)
		return
	}

	h.resyncSchedules(r, journalID)
	writeJSONResponse(w, http.StatusCreated, installation)
}

func (h *BotAdminHTTPHandler) HandleUninstallBot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	journalID, botID := vars["journalID"], vars["botID"]
	log.Printf("🤖 Uninstalling bot %s for journal %s", botID, journalID)

	if err := h.installations.UninstallBot(ctx, journalID, botID); err != nil {
		h.writeInstallationError(w, botID, err)
		return
	}

	h.resyncSchedules(r, journalID)
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "uninstalled"})
}

func (h *BotAdminHTTPHandler) HandleSetEnabled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	journalID, botID := vars["journalID"], vars["botID"]

	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	log.Printf("🤖 Setting bot %s enabled=%t for journal %s", botID, req.Enabled, journalID)

	installation, err := h.installations.SetEnabled(ctx, journalID, botID, req.Enabled)
	if err != nil {
		h.writeInstallationError(w, botID, err)
		return
	}

	h.resyncSchedules(r, journalID)
	writeJSONResponse(w, http.StatusOK, installation)
}

func (h *BotAdminHTTPHandler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	journalID, botID := vars["journalID"], vars["botID"]
	log.Printf("🤖 Updating config for bot %s in journal %s", botID, journalID)

	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	installation, err := h.installations.UpdateConfig(ctx, journalID, botID, req.Config)
	if err != nil {
		h.writeInstallationError(w, botID, err)
		return
	}

	h.resyncSchedules(r, journalID)
	writeJSONResponse(w, http.StatusOK, installation)
}

func (h *BotAdminHTTPHandler) writeInstallationError(w http.ResponseWriter, botID string, err error) {
	log.Printf("❌ Installation operation failed for bot %s: %v", botID, err)
	switch {
	case errors.Is(err, core.ErrRequiredBot):
		http.Error(w, "bot is required and cannot be disabled", http.StatusConflict)
	case core.IsNotFoundError(err):
		http.Error(w, "bot installation not found", http.StatusNotFound)
	default:
		http.Error(w, "installation operation failed", http.StatusInternalServerError)
	}
}

// resyncSchedules reconciles cron schedules after any installation change.
// A failed re-sync is logged, not surfaced - the installation change itself
// already committed.
func (h *BotAdminHTTPHandler) resyncSchedules(r *http.Request, journalID string) {
	if h.scheduler == nil {
		return
	}
	if err := h.scheduler.Sync(r.Context(), journalID); err != nil {
		log.Printf("⚠️ Failed to re-sync schedules for journal %s: %v", journalID, err)
	}
}

func (h *BotAdminHTTPHandler) SetupEndpoints(router *mux.Router, authMiddleware *middleware.ClerkAuthMiddleware) {
	log.Printf("🚀 Registering bot admin API endpoints")

	router.HandleFunc("/journals/{journalID}/bots", authMiddleware.WithAuth(h.HandleListBots)).Methods("GET")
	log.Printf("✅ GET /journals/{journalID}/bots endpoint registered")

	router.HandleFunc("/journals/{journalID}/installations", authMiddleware.WithAuth(h.HandleListInstallations)).
		Methods("GET")
	log.Printf("✅ GET /journals/{journalID}/installations endpoint registered")

	router.HandleFunc("/journals/{journalID}/bots/{botID}/install", authMiddleware.WithAuth(h.HandleInstallBot)).
		Methods("POST")
	log.Printf("✅ POST /journals/{journalID}/bots/{botID}/install endpoint registered")

	router.HandleFunc("/journals/{journalID}/bots/{botID}", authMiddleware.WithAuth(h.HandleUninstallBot)).
		Methods("DELETE")
	log.Printf("✅ DELETE /journals/{journalID}/bots/{botID} endpoint registered")

	router.HandleFunc("/journals/{journalID}/bots/{botID}/enabled", authMiddleware.WithAuth(h.HandleSetEnabled)).
		Methods("PUT")
	log.Printf("✅ PUT /journals/{journalID}/bots/{botID}/enabled endpoint registered")

	router.HandleFunc("/journals/{journalID}/bots/{botID}/config", authMiddleware.WithAuth(h.HandleUpdateConfig)).
		Methods("PUT")
	log.Printf("✅ PUT /journals/{journalID}/bots/{botID}/config endpoint registered")
}
