// internal/common/http/client.go
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running activities server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Activity mirrors one entry of the GET /activities payload.
type Activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// Activities fetches the full roster keyed by activity name.
func (c *Client) Activities(ctx context.Context) (map[string]Activity, error) {
	var out map[string]Activity
	if err := c.call(ctx, http.MethodGet, "/activities", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Signup returns the server's confirmation message.
func (c *Client) Signup(ctx context.Context, activity, email string) (string, error) {
	return c.rosterCall(ctx, http.MethodPost, activity, "signup", email)
}

func (c *Client) Unregister(ctx context.Context, activity, email string) (string, error) {
	return c.rosterCall(ctx, http.MethodDelete, activity, "unregister", email)
}

func (c *Client) rosterCall(ctx context.Context, method, activity, action, email string) (string, error) {
	path := fmt.Sprintf("/activities/%s/%s?email=%s",
		url.PathEscape(activity), action, url.QueryEscape(email))

	var out struct {
		Message string `json:"message"`
	}
	if err := c.call(ctx, method, path, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) call(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(body, &e)
		if e.Detail == "" {
			e.Detail = strings.TrimSpace(string(body))
		}
		return &APIError{Status: resp.StatusCode, Detail: e.Detail}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
