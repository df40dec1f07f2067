package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"colloquium/appctx"
	"colloquium/bots"
	"colloquium/core"
	"colloquium/models"
	"colloquium/services"
)

type fakeBotStorage struct {
	entries map[string][]byte
}

func newFakeBotStorage() *fakeBotStorage {
	return &fakeBotStorage{entries: map[string][]byte{}}
}

func (s *fakeBotStorage) entryKey(botID, manuscriptID, key string) string {
	return botID + "/" + manuscriptID + "/" + key
}

func (s *fakeBotStorage) Set(_ context.Context, botID, manuscriptID, key string, value []byte) error {
	s.entries[s.entryKey(botID, manuscriptID, key)] = value
	return nil
}

func (s *fakeBotStorage) Get(_ context.Context, botID, manuscriptID, key string) ([]byte, error) {
	value, ok := s.entries[s.entryKey(botID, manuscriptID, key)]
	if !ok {
		return nil, fmt.Errorf("bot storage key %s: %w", key, core.ErrNotFound)
	}
	return value, nil
}

func (s *fakeBotStorage) Delete(_ context.Context, botID, manuscriptID, key string) error {
	delete(s.entries, s.entryKey(botID, manuscriptID, key))
	return nil
}

func (s *fakeBotStorage) ListKeys(_ context.Context, botID, manuscriptID string) ([]string, error) {
	var keys []string
	prefix := s.entryKey(botID, manuscriptID, "")
	for entry := range s.entries {
		if len(entry) > len(prefix) && entry[:len(prefix)] == prefix {
			keys = append(keys, entry[len(prefix):])
		}
	}
	return keys, nil
}

type botAPIFixture struct {
	handler     *BotAPIHTTPHandler
	manuscripts *services.MockManuscriptsService
	files       *services.MockFilesService
	users       *services.MockUsersService
	reviews     *services.MockReviewsService
	storage     *fakeBotStorage
}

func newBotAPIFixture() *botAPIFixture {
	f := &botAPIFixture{
		manuscripts: new(services.MockManuscriptsService),
		files:       new(services.MockFilesService),
		users:       new(services.MockUsersService),
		reviews:     new(services.MockReviewsService),
		storage:     newFakeBotStorage(),
	}
	f.handler = NewBotAPIHTTPHandler(f.manuscripts, f.files, f.users, f.reviews, nil, nil, f.storage)
	return f
}

func claimsContext(req *http.Request, botID, manuscriptID string, permissions []string) *http.Request {
	claims := &bots.ServiceTokenClaims{
		BotID:        botID,
		ManuscriptID: manuscriptID,
		Permissions:  permissions,
	}
	return req.WithContext(appctx.SetBotClaims(req.Context(), claims))
}

func TestGetManuscriptScopedToToken(t *testing.T) {
	f := newBotAPIFixture()

	req := httptest.NewRequest(http.MethodGet, "/manuscripts/ms_other", nil)
	req = mux.SetURLVars(req, map[string]string{"manuscriptID": "ms_other"})
	req = claimsContext(req, "bot-editorial", "ms_1", []string{models.PermissionReadManuscript})

	rec := httptest.NewRecorder()
	f.handler.HandleGetManuscript(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.manuscripts.AssertNotCalled(t, "GetManuscriptByID")
}

func TestGetManuscriptRequiresReadPermission(t *testing.T) {
	f := newBotAPIFixture()

	req := httptest.NewRequest(http.MethodGet, "/manuscripts/ms_1", nil)
	req = mux.SetURLVars(req, map[string]string{"manuscriptID": "ms_1"})
	req = claimsContext(req, "bot-editorial", "ms_1", []string{models.PermissionAssignReviewers})

	rec := httptest.NewRecorder()
	f.handler.HandleGetManuscript(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.manuscripts.AssertNotCalled(t, "GetManuscriptByID")
}

func TestGetManuscriptReturnsManuscript(t *testing.T) {
	f := newBotAPIFixture()
	manuscript := &models.Manuscript{
		ID:        "ms_1",
		JournalID: "j_1",
		Title:     "On the Shoulders of Giants",
		Status:    models.ManuscriptStatusUnderReview,
	}
	f.manuscripts.On("GetManuscriptByID", mock.Anything, "ms_1").Return(mo.Some(manuscript), nil)

	req := httptest.NewRequest(http.MethodGet, "/manuscripts/ms_1", nil)
	req = mux.SetURLVars(req, map[string]string{"manuscriptID": "ms_1"})
	req = claimsContext(req, "bot-editorial", "ms_1", []string{models.PermissionReadManuscript})

	rec := httptest.NewRecorder()
	f.handler.HandleGetManuscript(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Manuscript
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "On the Shoulders of Giants", got.Title)
}

func TestAssignReviewerRequiresPermission(t *testing.T) {
	f := newBotAPIFixture()

	body := bytes.NewBufferString(`{"reviewer_id": "u_rev"}`)
	req := httptest.NewRequest(http.MethodPost, "/manuscripts/ms_1/reviewers", body)
	req = mux.SetURLVars(req, map[string]string{"manuscriptID": "ms_1"})
	req = claimsContext(req, "bot-editorial", "ms_1", []string{models.PermissionReadManuscript})

	rec := httptest.NewRecorder()
	f.handler.HandleAssignReviewer(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.reviews.AssertNotCalled(t, "AssignReviewer")
}

func TestFileContentOutsideManuscriptScope(t *testing.T) {
	f := newBotAPIFixture()
	file := &models.ManuscriptFile{
		ID:           "file_1",
		ManuscriptID: "ms_other",
		Name:         "draft.pdf",
		ContentType:  "application/pdf",
		Content:      []byte("%PDF"),
	}
	f.files.On("GetFileByID", mock.Anything, "file_1").Return(mo.Some(file), nil)

	req := httptest.NewRequest(http.MethodGet, "/files/file_1", nil)
	req = mux.SetURLVars(req, map[string]string{"fileID": "file_1"})
	req = claimsContext(req, "bot-reference-checker", "ms_1", []string{models.PermissionReadFiles})

	rec := httptest.NewRecorder()
	f.handler.HandleGetFileContent(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "%PDF")
}

func TestStorageIsIsolatedPerBot(t *testing.T) {
	f := newBotAPIFixture()

	put := httptest.NewRequest(http.MethodPut, "/manuscripts/ms_1/storage/counter", bytes.NewBufferString(`{"count": 2}`))
	put = mux.SetURLVars(put, map[string]string{"manuscriptID": "ms_1", "key": "counter"})
	put = claimsContext(put, "bot-a", "ms_1", nil)

	rec := httptest.NewRecorder()
	f.handler.HandleStoragePut(rec, put)
	require.Equal(t, http.StatusOK, rec.Code)

	// Same key, same manuscript, owning bot: visible
	get := httptest.NewRequest(http.MethodGet, "/manuscripts/ms_1/storage/counter", nil)
	get = mux.SetURLVars(get, map[string]string{"manuscriptID": "ms_1", "key": "counter"})
	get = claimsContext(get, "bot-a", "ms_1", nil)

	rec = httptest.NewRecorder()
	f.handler.HandleStorageGet(rec, get)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 2}`, rec.Body.String())

	// Different bot, same manuscript and key: invisible
	other := httptest.NewRequest(http.MethodGet, "/manuscripts/ms_1/storage/counter", nil)
	other = mux.SetURLVars(other, map[string]string{"manuscriptID": "ms_1", "key": "counter"})
	other = claimsContext(other, "bot-b", "ms_1", nil)

	rec = httptest.NewRecorder()
	f.handler.HandleStorageGet(rec, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoragePutRejectsInvalidJSON(t *testing.T) {
	f := newBotAPIFixture()

	put := httptest.NewRequest(http.MethodPut, "/manuscripts/ms_1/storage/counter", bytes.NewBufferString(`{broken`))
	put = mux.SetURLVars(put, map[string]string{"manuscriptID": "ms_1", "key": "counter"})
	put = claimsContext(put, "bot-a", "ms_1", nil)

	rec := httptest.NewRecorder()
	f.handler.HandleStoragePut(rec, put)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.storage.entries)
}
