package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Harshitk-cp/tenantedge/internal/buildconfig"
	"github.com/Harshitk-cp/tenantedge/internal/domain"
)

var ErrUnauthorized = errors.New("backend rejected session")

// Client reads workspaces and pages from the platform API using the
// caller's session token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// The backend wraps list payloads as {"data": [...]}.
type listResponse[T any] struct {
	Data []T `json:"data"`
}

func (c *Client) ListWorkspaces(ctx context.Context, sessionToken string) ([]domain.Workspace, error) {
	var resp listResponse[domain.Workspace]
	if err := c.get(ctx, sessionToken, "/workspaces", &resp); err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return resp.Data, nil
}

func (c *Client) ListPages(ctx context.Context, sessionToken, workspaceID string) ([]domain.Page, error) {
	var resp listResponse[domain.Page]
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/pages"
	if err := c.get(ctx, sessionToken, path, &resp); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, sessionToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildconfig.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}
