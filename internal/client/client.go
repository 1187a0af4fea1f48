// Package client talks to the upstream task API. It only covers the three
// endpoints the engine consumes: the task catalog, the user's quest
// progress, and the user's task statuses. Errors are returned as-is; the
// session layer decides to keep operating on the last good data.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/questmap/geoquest/internal/task"
)

const usernameHeader = "X-Username"

type Client struct {
	baseURL  string
	username string
	http     *http.Client
}

// New builds a client for the API at baseURL, authenticating every request
// with the per-request username header.
func New(baseURL, username string) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		http:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type tasksResponse struct {
	Success bool          `json:"success"`
	Tasks   []task.Record `json:"tasks"`
}

// Tasks fetches the full task catalog. An empty list means no tasks, not an
// error.
func (c *Client) Tasks(ctx context.Context) ([]task.Record, error) {
	var resp tasksResponse
	if err := c.get(ctx, "/api/tasks", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("task catalog fetch reported failure")
	}
	return resp.Tasks, nil
}

type progressResponse struct {
	Success  bool           `json:"success"`
	Progress map[string]any `json:"progress"`
}

// QuestProgress fetches the user's per-chain progress map. Keys are left
// raw; normalization happens at ingestion in the task package.
func (c *Client) QuestProgress(ctx context.Context) (map[string]any, error) {
	var resp progressResponse
	if err := c.get(ctx, "/api/user/quest-progress", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("quest progress fetch reported failure")
	}
	return resp.Progress, nil
}

// CompletedTasks fetches the user's task status listing.
func (c *Client) CompletedTasks(ctx context.Context) ([]task.UserTask, error) {
	var list []task.UserTask
	q := url.Values{"username": {c.username}}
	if err := c.get(ctx, "/api/user-tasks/all", q, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request %s: %w", path, err)
	}
	req.Header.Set(usernameHeader, c.username)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
