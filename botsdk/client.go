// Package botsdk is the HTTP client surface bot command handlers use to call
// back into the platform. Every request carries the invocation's service
// token; non-2xx responses surface as *APIError with the HTTP status.
package botsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"colloquium/models"
)

// APIError is the uniform error shape for every SDK call that reached the
// server and was refused
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status %d: %s", e.StatusCode, e.Message)
}

// Client is scoped to one invocation: it holds the service token minted for
// that invocation and must not outlive it
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	Manuscripts *ManuscriptsAPI
	Files       *FilesAPI
	Users       *UsersAPI
	Reviewers   *ReviewersAPI
	Storage     *StorageAPI
	Bots        *BotsAPI
}

func New(baseURL, serviceToken string) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      serviceToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	c.Manuscripts = &ManuscriptsAPI{c}
	c.Files = &FilesAPI{c}
	c.Users = &UsersAPI{c}
	c.Reviewers = &ReviewersAPI{c}
	c.Storage = &StorageAPI{c}
	c.Bots = &BotsAPI{c}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ManuscriptsAPI reads manuscript records
type ManuscriptsAPI struct{ c *Client }

func (a *ManuscriptsAPI) Get(ctx context.Context, manuscriptID string) (*models.Manuscript, error) {
	var manuscript models.Manuscript
	if err := a.c.do(ctx, http.MethodGet, "/api/bot/manuscripts/"+url.PathEscape(manuscriptID), nil, &manuscript); err != nil {
		return nil, err
	}
	return &manuscript, nil
}

// File is a manuscript file's metadata as exposed to bots
type File struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// FilesAPI lists and fetches manuscript files
type FilesAPI struct{ c *Client }

func (a *FilesAPI) List(ctx context.Context, manuscriptID string) ([]File, error) {
	var files []File
	if err := a.c.do(ctx, http.MethodGet, "/api/bot/manuscripts/"+url.PathEscape(manuscriptID)+"/files", nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (a *FilesAPI) Get(ctx context.Context, fileID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.c.baseURL+"/api/bot/files/"+url.PathEscape(fileID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.c.token)

	resp, err := a.c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(raw))}
	}
	return io.ReadAll(resp.Body)
}

// UsersAPI reads user records
type UsersAPI struct{ c *Client }

func (a *UsersAPI) Get(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := a.c.do(ctx, http.MethodGet, "/api/bot/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *UsersAPI) Search(ctx context.Context, query string) ([]*models.User, error) {
	var users []*models.User
	if err := a.c.do(ctx, http.MethodGet, "/api/bot/users?q="+url.QueryEscape(query), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ReviewersAPI reads and creates reviewer assignments
type ReviewersAPI struct{ c *Client }

func (a *ReviewersAPI) List(ctx context.Context, manuscriptID string) ([]*models.ReviewerAssignment, error) {
	var assignments []*models.ReviewerAssignment
	if err := a.c.do(ctx, http.MethodGet, "/api/bot/manuscripts/"+url.PathEscape(manuscriptID)+"/reviewers", nil, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

type assignReviewerRequest struct {
	ReviewerID string `json:"reviewer_id"`
	DueDate    string `json:"due_date,omitempty"`
}

func (a *ReviewersAPI) Assign(ctx context.Context, manuscriptID, reviewerID string, dueDate *time.Time) (*models.ReviewerAssignment, error) {
	req := assignReviewerRequest{ReviewerID: reviewerID}
	if dueDate != nil {
		req.DueDate = dueDate.Format(time.RFC3339)
	}
	var assignment models.ReviewerAssignment
	if err := a.c.do(ctx, http.MethodPost, "/api/bot/manuscripts/"+url.PathEscape(manuscriptID)+"/reviewers", req, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// StorageAPI is the bot-scoped, manuscript-scoped key-value store
type StorageAPI struct{ c *Client }

func (a *StorageAPI) storagePath(manuscriptID, key string) string {
	path := "/api/bot/manuscripts/" + url.PathEscape(manuscriptID) + "/storage"
	if key != "" {
		path += "/" + url.PathEscape(key)
	}
	return path
}

func (a *StorageAPI) Get(ctx context.Context, manuscriptID, key string) (any, error) {
	var value any
	if err := a.c.do(ctx, http.MethodGet, a.storagePath(manuscriptID, key), nil, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func (a *StorageAPI) Set(ctx context.Context, manuscriptID, key string, value any) error {
	return a.c.do(ctx, http.MethodPut, a.storagePath(manuscriptID, key), value, nil)
}

func (a *StorageAPI) Delete(ctx context.Context, manuscriptID, key string) error {
	return a.c.do(ctx, http.MethodDelete, a.storagePath(manuscriptID, key), nil, nil)
}

func (a *StorageAPI) List(ctx context.Context, manuscriptID string) ([]string, error) {
	var keys []string
	if err := a.c.do(ctx, http.MethodGet, a.storagePath(manuscriptID, ""), nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// BotsAPI invokes other bots' commands
type BotsAPI struct{ c *Client }

type invokeRequest struct {
	Params map[string]any `json:"params"`
}

func (a *BotsAPI) Invoke(ctx context.Context, botID, command string, params map[string]any) (*models.BotResult, error) {
	var result models.BotResult
	path := "/api/bot/bots/" + url.PathEscape(botID) + "/commands/" + url.PathEscape(command)
	if err := a.c.do(ctx, http.MethodPost, path, invokeRequest{Params: params}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
