package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"colloquium/appctx"
	"colloquium/bots"
	"colloquium/core"
	"colloquium/middleware"
	"colloquium/models"
	"colloquium/services"
	botsusecase "colloquium/usecases/bots"
)

// botStorage is the key-value store backing the SDK storage endpoints
type botStorage interface {
	Set(ctx context.Context, botID, manuscriptID, key string, value []byte) error
	Get(ctx context.Context, botID, manuscriptID, key string) ([]byte, error)
	Delete(ctx context.Context, botID, manuscriptID, key string) error
	ListKeys(ctx context.Context, botID, manuscriptID string) ([]string, error)
}

// BotAPIHTTPHandler serves the platform API bots call back into with their
// per-invocation service token. Every endpoint is scoped twice: the token's
// manuscript must match the path, and the token must carry the permission
// the endpoint requires.
type BotAPIHTTPHandler struct {
	manuscripts services.ManuscriptsService
	files       services.FilesService
	users       services.UsersService
	reviews     services.ReviewsService
	registry    services.BotRegistryService
	executor    *botsusecase.Executor
	storage     botStorage
}

func NewBotAPIHTTPHandler(
	manuscripts services.ManuscriptsService,
	files services.FilesService,
	users services.UsersService,
	reviews services.ReviewsService,
	registry services.BotRegistryService,
	executor *botsusecase.Executor,
	storage botStorage,
) *BotAPIHTTPHandler {
	return &BotAPIHTTPHandler{
		manuscripts: manuscripts,
		files:       files,
		users:       users,
		reviews:     reviews,
		registry:    registry,
		executor:    executor,
		storage:     storage,
	}
}

type AssignReviewerRequest struct {
	ReviewerID string `json:"reviewer_id"`
	DueDate    string `json:"due_date,omitempty"`
}

type InvokeCommandRequest struct {
	Params map[string]any `json:"params"`
}

// claimsFor extracts the verified service-token claims and enforces the
// manuscript scope and required permission. A nil return means the response
// has already been written.
func (h *BotAPIHTTPHandler) claimsFor(
	w http.ResponseWriter,
	r *http.Request,
	manuscriptID, permission string,
) *bots.ServiceTokenClaims {
	claims, ok := appctx.GetBotClaims(r.Context())
	if !ok {
		log.Printf("❌ Bot claims not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return nil
	}
	if manuscriptID != "" && claims.ManuscriptID != manuscriptID {
		log.Printf("❌ Bot %s token scoped to manuscript %s, requested %s",
			claims.BotID, claims.ManuscriptID, manuscriptID)
		http.Error(w, "token not scoped to this manuscript", http.StatusForbidden)
		return nil
	}
	if permission != "" && !hasPermission(claims, permission) {
		log.Printf("❌ Bot %s token missing permission %s", claims.BotID, permission)
		http.Error(w, "insufficient permissions", http.StatusForbidden)
		return nil
	}
	return claims
}

func hasPermission(claims *bots.ServiceTokenClaims, permission string) bool {
	for _, p := range claims.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (h *BotAPIHTTPHandler) HandleGetManuscript(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	manuscriptID := mux.Vars(r)["manuscriptID"]

	claims := h.claimsFor(w, r, manuscriptID, models.PermissionReadManuscript)
	if claims == nil {
		return
	}
	log.Printf("🔗 Bot %s fetching manuscript %s", claims.BotID, manuscriptID)

	maybeManuscript, err := h.manuscripts.GetManuscriptByID(ctx, manuscriptID)
	if err != nil {
		log.Printf("❌ Failed to get manuscript %s: %v", manuscriptID, err)
		http.Error(w, "failed to get manuscript", http.StatusInternalServerError)
		return
	}
	if !maybeManuscript.IsPresent() {
		http.Error(w, "manuscript not found", http.StatusNotFound)
		return
	}

	writeJSONResponse(w, http.StatusOK, maybeManuscript.MustGet())
}

func (h *BotAPIHTTPHandler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	manuscriptID := mux.Vars(r)["manuscriptID"]

	claims := h.claimsFor(w, r, manuscriptID, models.PermissionReadFiles)
	if claims == nil {
		return
	}
	log.Printf("🔗 Bot %s listing files for manuscript %s", claims.BotID, manuscriptID)

	files, err := h.files.ListFiles(ctx, manuscriptID)
	if err != nil {
		log.Printf("❌ Failed to list files for manuscript %s: %v", manuscriptID, err)
		http.Error(w, "failed to list files", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, files)
}

func (h *BotAPIHTTPHandler) HandleGetFileContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID := mux.Vars(r)["fileID"]

	claims := h.claimsFor(w, r, "", models.PermissionReadFiles)
	if claims == nil {
		return
	}

	maybeFile, err := h.files.GetFileByID(ctx, fileID)
	if err != nil {
		log.Printf("❌ Failed to get file %s: %v", fileID, err)
		http.Error(w, "failed to get file", http.StatusInternalServerError)
		return
	}
	if !maybeFile.IsPresent() {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	file := maybeFile.MustGet()

	// Files inherit the token's manuscript scope
	if file.ManuscriptID != claims.ManuscriptID {
		log.Printf("❌ Bot %s requested file %s outside manuscript scope", claims.BotID, fileID)
		http.Error(w, "token not scoped to this manuscript", http.StatusForbidden)
		return
	}

	log.Printf("🔗 Bot %s downloading file %s (%s)", claims.BotID, fileID, file.Name)
	w.Header().Set("Content-Type", file.ContentType)
	if _, err := w.Write(file.Content); err != nil {
		log.Printf("❌ Failed to write file content: %v", err)
	}
}

func (h *BotAPIHTTPHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := mux.Vars(r)["userID"]

	claims := h.claimsFor(w, r, "", "")
	if claims == nil {
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		if core.IsNotFoundError(err) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Failed to get user %s: %v", userID, err)
		http.Error(w, "failed to get user", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, user)
}

func (h *BotAPIHTTPHandler) HandleSearchUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := h.claimsFor(w, r, "", "")
	if claims == nil {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q query parameter is required", http.StatusBadRequest)
		return
	}

	users, err := h.users.SearchUsers(ctx, query, 20)
	if err != nil {
		log.Printf("❌ Failed to search users: %v", err)
		http.Error(w, "failed to search users", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, users)
}

func (h *BotAPIHTTPHandler) HandleListReviewers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	manuscriptID := mux.Vars(r)["manuscriptID"]

	claims := h.claimsFor(w, r, manuscriptID, models.PermissionReadManuscript)
	if claims == nil {
		return
	}

	assignments, err := h.reviews.ListAssignments(ctx, manuscriptID)
	if err != nil {
		log.Printf("❌ Failed to list reviewer assignments: %v", err)
		http.Error(w, "failed to list reviewers", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, assignments)
}

func (h *BotAPIHTTPHandler) HandleAssignReviewer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	manuscriptID := mux.Vars(r)["manuscriptID"]

	claims := h.claimsFor(w, r, manuscriptID, models.PermissionAssignReviewers)
	if claims == nil {
		return
	}

	var req AssignReviewerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ReviewerID == "" {
		http.Error(w, "reviewer_id is required", http.StatusBadRequest)
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		http.Error(w, "due_date must be RFC3339", http.StatusBadRequest)
		return
	}

	log.Printf("🔗 Bot %s assigning reviewer %s to manuscript %s", claims.BotID, req.ReviewerID, manuscriptID)
	assignment, err := h.reviews.AssignReviewer(ctx, manuscriptID, req.ReviewerID, claims.BotID, dueDate)
	if err != nil {
		log.Printf("❌ Failed to assign reviewer: %v", err)
		http.Error(w, "failed to assign reviewer", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusCreated, assignment)
}

func parseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (h *BotAPIHTTPHandler) HandleStorageList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	manuscriptID := mux.Vars(r)["manuscriptID"]

	claims := h.claimsFor(w, r, manuscriptID, "")
	if claims == nil {
		return
	}

	keys, err := h.storage.ListKeys(ctx, claims.BotID, manuscriptID)
	if err != nil {
		log.Printf("❌ Failed to list storage keys: %v", err)
		http.Error(w, "failed to list storage keys", http.StatusInternalServerError)
		return
	}
	if keys == nil {
		keys = []string{}
	}

	writeJSONResponse(w, http.StatusOK, keys)
}

func (h *BotAPIHTTPHandler) HandleStorageGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	manuscriptID, key := vars["manuscriptID"], vars["key"]

	claims := h.claimsFor(w, r, manuscriptID, "")
	if claims == nil {
		return
	}

	value, err := h.storage.Get(ctx, claims.BotID, manuscriptID, key)
	if err != nil {
		if core.IsNotFoundError(err) {
			http.Error(w, "storage key not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Failed to get storage key %s: %v", key, err)
		http.Error(w, "failed to get storage value", http.StatusInternalServerError)
		return
	}

	// Values were stored as JSON; echo the bytes back verbatim
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(value); err != nil {
		log.Printf("❌ Failed to write storage value: %v", err)
	}
}

func (h *BotAPIHTTPHandler) HandleStoragePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	manuscriptID, key := vars["manuscriptID"], vars["key"]

	claims := h.claimsFor(w, r, manuscriptID, "")
	if claims == nil {
		return
	}

	value, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if !json.Valid(value) {
		http.Error(w, "storage values must be valid JSON", http.StatusBadRequest)
		return
	}

	if err := h.storage.Set(ctx, claims.BotID, manuscriptID, key, value); err != nil {
		log.Printf("❌ Failed to set storage key %s: %v", key, err)
		http.Error(w, "failed to set storage value", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "stored"})
}

func (h *BotAPIHTTPHandler) HandleStorageDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	manuscriptID, key := vars["manuscriptID"], vars["key"]

	claims := h.claimsFor(w, r, manuscriptID, "")
	if claims == nil {
		return
	}

	if err := h.storage.Delete(ctx, claims.BotID, manuscriptID, key); err != nil {
		log.Printf("❌ Failed to delete storage key %s: %v", key, err)
		http.Error(w, "failed to delete storage value", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleInvokeCommand lets one bot invoke another bot's command. The target
// bot's installation and permissions are enforced by the executor exactly as
// for a chat-originated invocation.
func (h *BotAPIHTTPHandler) HandleInvokeCommand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	botID, commandName := vars["botID"], vars["command"]

	claims := h.claimsFor(w, r, "", "")
	if claims == nil {
		return
	}
	log.Printf("🔗 Bot %s invoking @%s %s", claims.BotID, botID, commandName)

	var req InvokeCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	params, err := h.prepareParams(botID, commandName, req.Params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	maybeManuscript, err := h.manuscripts.GetManuscriptByID(ctx, claims.ManuscriptID)
	if err != nil || !maybeManuscript.IsPresent() {
		log.Printf("❌ Failed to resolve manuscript %s for invocation: %v", claims.ManuscriptID, err)
		http.Error(w, "failed to resolve manuscript", http.StatusInternalServerError)
		return
	}
	manuscript := maybeManuscript.MustGet()

	parsed := &models.ParsedCommand{
		BotID:      botID,
		Command:    commandName,
		Parameters: params,
	}
	meta := botsusecase.Invocation{
		JournalID:    manuscript.JournalID,
		ManuscriptID: manuscript.ID,
		UserID:       claims.BotID,
		Trigger:      models.TriggerKeyword,
	}

	result := h.executor.Execute(ctx, parsed, meta)
	writeJSONResponse(w, http.StatusOK, result)
}

// prepareParams applies declared defaults and checks required parameters.
// SDK invocations bypass the chat parser, so the defaulting it would have
// done happens here.
func (h *BotAPIHTTPHandler) prepareParams(
	botID, commandName string,
	params map[string]any,
) (map[string]any, error) {
	maybeBot := h.registry.GetBot(botID)
	if !maybeBot.IsPresent() {
		return params, nil // executor reports the unrecognized bot
	}
	command, ok := maybeBot.MustGet().Command(commandName)
	if !ok {
		return params, nil
	}

	if params == nil {
		params = map[string]any{}
	}
	for i := range command.Parameters {
		spec := &command.Parameters[i]
		if _, present := params[spec.Name]; present {
			continue
		}
		if spec.DefaultValue != nil {
			params[spec.Name] = spec.DefaultValue
			continue
		}
		if spec.Required {
			return nil, fmt.Errorf("missing required parameter %q", spec.Name)
		}
	}
	return params, nil
}

func (h *BotAPIHTTPHandler) SetupEndpoints(router *mux.Router, botAuth *middleware.BotAuthMiddleware) {
	log.Printf("🚀 Registering bot platform API endpoints")

	router.HandleFunc("/manuscripts/{manuscriptID}", botAuth.WithBotAuth(h.HandleGetManuscript)).Methods("GET")
	router.HandleFunc("/manuscripts/{manuscriptID}/files", botAuth.WithBotAuth(h.HandleListFiles)).Methods("GET")
	router.HandleFunc("/files/{fileID}", botAuth.WithBotAuth(h.HandleGetFileContent)).Methods("GET")
	router.HandleFunc("/users/{userID}", botAuth.WithBotAuth(h.HandleGetUser)).Methods("GET")
	router.HandleFunc("/users", botAuth.WithBotAuth(h.HandleSearchUsers)).Queries("q", "{q}").Methods("GET")
	router.HandleFunc("/manuscripts/{manuscriptID}/reviewers", botAuth.WithBotAuth(h.HandleListReviewers)).
		Methods("GET")
	router.HandleFunc("/manuscripts/{manuscriptID}/reviewers", botAuth.WithBotAuth(h.HandleAssignReviewer)).
		Methods("POST")
	router.HandleFunc("/manuscripts/{manuscriptID}/storage", botAuth.WithBotAuth(h.HandleStorageList)).
		Methods("GET")
	router.HandleFunc("/manuscripts/{manuscriptID}/storage/{key}", botAuth.WithBotAuth(h.HandleStorageGet)).
		Methods("GET")
	router.HandleFunc("/manuscripts/{manuscriptID}/storage/{key}", botAuth.WithBotAuth(h.HandleStoragePut)).
		Methods("PUT")
	router.HandleFunc("/manuscripts/{manuscriptID}/storage/{key}", botAuth.WithBotAuth(h.HandleStorageDelete)).
		Methods("DELETE")
	router.HandleFunc("/bots/{botID}/commands/{command}", botAuth.WithBotAuth(h.HandleInvokeCommand)).
		Methods("POST")

	log.Printf("✅ All bot platform API endpoints registered")
}
