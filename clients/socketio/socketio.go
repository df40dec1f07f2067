package socketio

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/zishang520/socket.io/v2/socket"

	"colloquium/models"
	"colloquium/utils"
)

// TokenValidatorFunc validates a connection credential and returns the user id
type TokenValidatorFunc func(token string) (string, error)

type connection struct {
	socket *socket.Socket
	userID string
	// conversation ids this connection subscribed to
	conversations map[string]bool
}

// RealtimeClient pushes conversation events to connected journal clients.
// Clients subscribe per conversation; EmitMessageCreated fans a new message
// out to every subscriber of that conversation.
type RealtimeClient struct {
	server         *socket.Server
	mutex          sync.RWMutex
	bySocketID     map[string]*connection
	tokenValidator TokenValidatorFunc
}

func NewRealtimeClient(tokenValidator TokenValidatorFunc) *RealtimeClient {
	server := socket.NewServer(nil, nil)
	client := &RealtimeClient{
		server:         server,
		bySocketID:     make(map[string]*connection),
		tokenValidator: tokenValidator,
	}

	err := server.On("connection", func(sockets ...any) {
		sock := sockets[0].(*socket.Socket)
		client.handleConnection(sock)
	})
	utils.AssertInvariant(err == nil, fmt.Sprintf("Failed to register connection handler: %v", err))

	return client
}

func (rc *RealtimeClient) RegisterWithRouter(router *mux.Router) {
	router.PathPrefix("/socket.io/").Handler(rc.server.ServeHandler(nil))
	log.Printf("✅ Socket.IO server registered on /socket.io/")
}

func (rc *RealtimeClient) handleConnection(sock *socket.Socket) {
	log.Printf("🔗 New Socket.IO connection attempt, socket ID: %s", sock.Id())

	token, exists := headerValue(sock.Handshake().Headers, "Authorization")
	if !exists {
		log.Printf("❌ Rejecting Socket.IO connection: missing Authorization header")
		sock.Disconnect(true)
		return
	}
	token = strings.TrimPrefix(token, "Bearer ")

	userID, err := rc.tokenValidator(token)
	if err != nil {
		log.Printf("❌ Rejecting Socket.IO connection: invalid token: %v", err)
		sock.Disconnect(true)
		return
	}

	conn := &connection{
		socket:        sock,
		userID:        userID,
		conversations: make(map[string]bool),
	}
	rc.mutex.Lock()
	rc.bySocketID[string(sock.Id())] = conn
	rc.mutex.Unlock()
	log.Printf("✅ Socket.IO client connected for user %s, socket ID: %s", userID, sock.Id())

	err = sock.On("subscribe", func(data ...any) {
		if len(data) == 0 {
			return
		}
		conversationID, ok := data[0].(string)
		if !ok || conversationID == "" {
			return
		}
		rc.mutex.Lock()
		conn.conversations[conversationID] = true
		rc.mutex.Unlock()
		log.Printf("📋 User %s subscribed to conversation %s", userID, conversationID)
	})
	utils.AssertInvariant(err == nil, fmt.Sprintf("Failed to set up subscribe handler: %v", err))

	err = sock.On("unsubscribe", func(data ...any) {
		if len(data) == 0 {
			return
		}
		conversationID, ok := data[0].(string)
		if !ok {
			return
		}
		rc.mutex.Lock()
		delete(conn.conversations, conversationID)
		rc.mutex.Unlock()
	})
	utils.AssertInvariant(err == nil, fmt.Sprintf("Failed to set up unsubscribe handler: %v", err))

	err = sock.On("disconnect", func(...any) {
		rc.mutex.Lock()
		delete(rc.bySocketID, string(sock.Id()))
		remaining := len(rc.bySocketID)
		rc.mutex.Unlock()
		log.Printf("🔌 Socket.IO connection closed for user %s. Remaining clients: %d", userID, remaining)
	})
	utils.AssertInvariant(err == nil, fmt.Sprintf("Failed to set up disconnection handler: %v", err))
}

// EmitMessageCreated implements services.RealtimeNotifier
func (rc *RealtimeClient) EmitMessageCreated(conversationID string, message *models.ConversationMessage) error {
	rc.mutex.RLock()
	var targets []*socket.Socket
	for _, conn := range rc.bySocketID {
		if conn.conversations[conversationID] {
			targets = append(targets, conn.socket)
		}
	}
	rc.mutex.RUnlock()

	for _, target := range targets {
		if err := target.Emit("message_created", message); err != nil {
			log.Printf("⚠️ Failed to emit message_created to socket %s: %v", target.Id(), err)
		}
	}
	return nil
}

// headerValue performs a case-insensitive lookup in the handshake headers
func headerValue(headers map[string][]string, name string) (string, bool) {
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			if len(value) > 0 && value[0] != "" {
				return value[0], true
			}
		}
	}
	return "", false
}
