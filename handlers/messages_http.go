package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"colloquium/appctx"
	"colloquium/middleware"
	"colloquium/models"
	"colloquium/services"
	botsusecase "colloquium/usecases/bots"
)

// MessagesHTTPHandler is the inbound trigger source: the platform's
// message-creation hook posts every new conversation message here and the
// handler feeds it into the mention/command pipeline.
type MessagesHTTPHandler struct {
	messages      *botsusecase.MessagesUseCase
	conversations services.ConversationsService
	journals      services.JournalsService
}

func NewMessagesHTTPHandler(
	messages *botsusecase.MessagesUseCase,
	conversations services.ConversationsService,
	journals services.JournalsService,
) *MessagesHTTPHandler {
	return &MessagesHTTPHandler{
		messages:      messages,
		conversations: conversations,
		journals:      journals,
	}
}

type IncomingMessageRequest struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	ManuscriptID   string `json:"manuscript_id"`
	JournalID      string `json:"journal_id"`
	Content        string `json:"content"`
}

func (h *MessagesHTTPHandler) HandleIncomingMessage(w http.ResponseWriter, r *http.Request) {
	log.Printf("📨 Incoming message received from %s", r.RemoteAddr)
	ctx := r.Context()

	user, ok := appctx.GetUser(ctx)
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req IncomingMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to decode incoming message request: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ConversationID == "" || req.ManuscriptID == "" || req.JournalID == "" {
		http.Error(w, "conversation_id, manuscript_id and journal_id are required", http.StatusBadRequest)
		return
	}

	ctx, ok = h.journalContext(w, ctx, req.JournalID)
	if !ok {
		return
	}

	role, ok, err := h.participantRole(r, req.ConversationID, user.ID)
	if err != nil {
		log.Printf("❌ Failed to resolve conversation participants: %v", err)
		http.Error(w, "failed to resolve conversation", http.StatusInternalServerError)
		return
	}
	if !ok {
		log.Printf("❌ User %s is not a participant of conversation %s", user.ID, req.ConversationID)
		http.Error(w, "not a conversation participant", http.StatusForbidden)
		return
	}

	msg := botsusecase.IncomingMessage{
		MessageID:      req.MessageID,
		ConversationID: req.ConversationID,
		ManuscriptID:   req.ManuscriptID,
		JournalID:      req.JournalID,
		UserID:         user.ID,
		UserRole:       role,
		Content:        req.Content,
	}
	if err := h.messages.ProcessIncomingMessage(ctx, msg); err != nil {
		log.Printf("❌ Failed to process incoming message: %v", err)
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Incoming message %s processed", req.MessageID)
	writeJSONResponse(w, http.StatusAccepted, map[string]string{"status": "processed"})
}

type SystemEventRequest struct {
	Event          string         `json:"event"`
	ManuscriptID   string         `json:"manuscript_id"`
	JournalID      string         `json:"journal_id"`
	ConversationID string         `json:"conversation_id"`
	Payload        map[string]any `json:"payload"`
}

// HandleSystemEvent is the trigger source for platform lifecycle events
// (manuscript submitted, review complete, reviewer assigned). The event fans
// out to every installed, enabled bot that subscribes to it.
func (h *MessagesHTTPHandler) HandleSystemEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := appctx.GetUser(ctx)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req SystemEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Event == "" || req.ManuscriptID == "" || req.JournalID == "" || req.ConversationID == "" {
		http.Error(w, "event, manuscript_id, journal_id and conversation_id are required", http.StatusBadRequest)
		return
	}
	log.Printf("📨 System event %s for manuscript %s", req.Event, req.ManuscriptID)

	ctx, ok = h.journalContext(w, ctx, req.JournalID)
	if !ok {
		return
	}

	msg := botsusecase.IncomingMessage{
		ConversationID: req.ConversationID,
		ManuscriptID:   req.ManuscriptID,
		JournalID:      req.JournalID,
		UserID:         user.ID,
	}
	if err := h.messages.ProcessEvent(ctx, req.Event, req.Payload, msg); err != nil {
		log.Printf("❌ Failed to process system event %s: %v", req.Event, err)
		http.Error(w, "failed to process event", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}

// journalContext loads the journal and stashes its settings snapshot on the
// request context, where downstream execution-context building picks it up.
// A false return means the response has been written.
func (h *MessagesHTTPHandler) journalContext(
	w http.ResponseWriter,
	ctx context.Context,
	journalID string,
) (context.Context, bool) {
	maybeJournal, err := h.journals.GetJournalByID(ctx, journalID)
	if err != nil {
		log.Printf("❌ Failed to load journal %s: %v", journalID, err)
		http.Error(w, "failed to resolve journal", http.StatusInternalServerError)
		return ctx, false
	}
	if !maybeJournal.IsPresent() {
		log.Printf("❌ Journal %s not found", journalID)
		http.Error(w, "journal not found", http.StatusNotFound)
		return ctx, false
	}
	return appctx.SetJournal(ctx, maybeJournal.MustGet()), true
}

func (h *MessagesHTTPHandler) participantRole(
	r *http.Request,
	conversationID, userID string,
) (models.UserRole, bool, error) {
	participants, err := h.conversations.ListParticipants(r.Context(), conversationID)
	if err != nil {
		return "", false, err
	}
	for _, p := range participants {
		if p.UserID == userID {
			return p.Role, true, nil
		}
	}
	return "", false, nil
}

func (h *MessagesHTTPHandler) SetupEndpoints(router *mux.Router, authMiddleware *middleware.ClerkAuthMiddleware) {
	router.HandleFunc("/messages", authMiddleware.WithAuth(h.HandleIncomingMessage)).Methods("POST")
	log.Printf("✅ POST /messages endpoint registered")

	router.HandleFunc("/events", authMiddleware.WithAuth(h.HandleSystemEvent)).Methods("POST")
	log.Printf("✅ POST /events endpoint registered")
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
