package references

import (
	"context"
	"fmt"
	"strings"

	"colloquium/botsdk"
)

// referencesFileName is the conventional manuscript file holding the
// reference list, one entry per line.
const referencesFileName = "references.txt"

// Client fetches a manuscript's reference list through the platform's bot
// API, authenticating with the invocation's own service token.
type Client struct {
	baseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL}
}

func (c *Client) ListReferences(ctx context.Context, manuscriptID, serviceToken string) ([]string, error) {
	sdk := botsdk.New(c.baseURL, serviceToken)

	files, err := sdk.Files.List(ctx, manuscriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list manuscript files: %w", err)
	}

	var fileID string
	for _, file := range files {
		if strings.EqualFold(file.Name, referencesFileName) {
			fileID = file.ID
			break
		}
	}
	if fileID == "" {
		return nil, nil
	}

	content, err := sdk.Files.Get(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reference list: %w", err)
	}

	var references []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			references = append(references, line)
		}
	}
	return references, nil
}
