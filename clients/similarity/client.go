package similarity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"colloquium/bots/builtin"
)

// Client talks to an external similarity-scanning service. It implements
// builtin.SimilarityScanner.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type scanResponse struct {
	Matches []struct {
		Source string          `json:"source"`
		Score  decimal.Decimal `json:"score"`
	} `json:"matches"`
}

func (c *Client) ScanManuscript(ctx context.Context, manuscriptID string) ([]builtin.SimilarityMatch, error) {
	endpoint := c.baseURL + "/v1/scans/" + url.PathEscape(manuscriptID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scan request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("similarity service error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode scan response: %w", err)
	}

	matches := make([]builtin.SimilarityMatch, 0, len(parsed.Matches))
	for _, match := range parsed.Matches {
		matches = append(matches, builtin.SimilarityMatch{
			Source: match.Source,
			Score:  match.Score,
		})
	}
	return matches, nil
}

// Unconfigured is the scanner used when no similarity service is set up.
// Scans fail with a clear error, which the plagiarism bot surfaces as an
// execution failure instead of silently returning a clean report.
type Unconfigured struct{}

func NewUnconfigured() *Unconfigured {
	return &Unconfigured{}
}

func (u *Unconfigured) ScanManuscript(ctx context.Context, manuscriptID string) ([]builtin.SimilarityMatch, error) {
	return nil, fmt.Errorf("similarity service is not configured")
}
