package botsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colloquium/models"
)

func TestClientAttachesServiceToken(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(models.Manuscript{ID: "ms_1", Title: "On Things"})
	}))
	defer server.Close()

	client := New(server.URL, "signed-token")
	manuscript, err := client.Manuscripts.Get(context.Background(), "ms_1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer signed-token", seenAuth)
	assert.Equal(t, "On Things", manuscript.Title)
}

func TestClientSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "insufficient bot permissions", http.StatusForbidden)
	}))
	defer server.Close()

	client := New(server.URL, "signed-token")
	_, err := client.Manuscripts.Get(context.Background(), "ms_1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "insufficient bot permissions")
}

func TestStorageRoundTrip(t *testing.T) {
	store := map[string]any{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		switch r.Method {
		case http.MethodPut:
			var value any
			json.NewDecoder(r.Body).Decode(&value)
			store[key] = value
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			value, ok := store[key]
			if !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(value)
		case http.MethodDelete:
			delete(store, key)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	client := New(server.URL, "signed-token")

	require.NoError(t, client.Storage.Set(ctx, "ms_1", "scan_state", map[string]any{"pass": 2}))

	value, err := client.Storage.Get(ctx, "ms_1", "scan_state")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"pass": float64(2)}, value)

	require.NoError(t, client.Storage.Delete(ctx, "ms_1", "scan_state"))

	_, err = client.Storage.Get(ctx, "ms_1", "scan_state")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestBotInvoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bot/bots/bot-reference-checker/commands/validate", r.URL.Path)
		json.NewEncoder(w).Encode(models.BotResult{
			Messages: []models.BotMessage{{Content: "all references check out"}},
		})
	}))
	defer server.Close()

	client := New(server.URL, "signed-token")
	result, err := client.Bots.Invoke(context.Background(), "bot-reference-checker", "validate", map[string]any{})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
}
