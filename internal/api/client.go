// Package api is the HTTP client for the task backend. It attaches the
// current bearer token, refuses to issue protected requests when the
// session is already known to be expired, and maps failures to typed
// errors. It never retries; callers decide what a failure means.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hvaldez/taskmovil/internal/model"
)

// SessionState is the slice of the session manager the client consults
// before issuing protected requests.
type SessionState interface {
	Token() (string, bool)
	IsExpired() bool
}

// Client talks to the task backend over HTTP/JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    SessionState
	log        *slog.Logger
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// BindSession attaches the session state consulted on every protected
// call. Wired once at startup; requests made before binding are treated
// as unauthenticated.
func (c *Client) BindSession(s SessionState) {
	c.session = s
}

// Login authenticates with the backend. This is the only endpoint that
// does not require a session.
func (c *Client) Login(ctx context.Context, username, password string) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp, false)
	return resp, err
}

// Tasks fetches the task list, optionally filtered by assignee.
func (c *Client) Tasks(ctx context.Context, assigneeID string) ([]model.Task, error) {
	path := "/tasks"
	if assigneeID != "" {
		path += "?assigneeId=" + url.QueryEscape(assigneeID)
	}

	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks, true); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Task fetches a single task by id.
func (c *Client) Task(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &task, true)
	return task, err
}

// UpdateTaskStatus moves a task to a new workflow status.
func (c *Client) UpdateTaskStatus(ctx context.Context, id, status string) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id)+"/status",
		map[string]string{"status": status}, &task, true)
	return task, err
}

// Notifications fetches the full notification list for the current user.
func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	var ns []model.Notification
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, &ns, true); err != nil {
		return nil, err
	}
	return ns, nil
}

// MarkNotificationRead marks a single notification as read server-side.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/notifications/"+url.PathEscape(id)+"/read", nil, nil, true)
}

// CurrentUser fetches the profile of the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var user model.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user, true)
	return user, err
}

// SavePushToken registers a device push token with the backend.
func (c *Client) SavePushToken(ctx context.Context, pushToken string) error {
	return c.do(ctx, http.MethodPost, "/users/push-token",
		map[string]string{"pushToken": pushToken}, nil, true)
}

// do builds and executes a request, handling auth, the pre-flight
// expiry check, and JSON (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
	authRequired bool,
) error {
	if authRequired {
		// A locally expired session means the server would reject the
		// call anyway; fail before spending a round-trip.
		if c.session == nil || c.session.IsExpired() {
			return fmt.Errorf("%s %s: %w", method, path, ErrSessionExpired)
		}
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if tok, ok := c.session.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	c.log.Debug("api request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %w", method, path,
			&HTTPError{Status: resp.StatusCode, Body: string(respBody)})
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return fmt.Errorf("%s %s: %w", method, path,
			&ContentTypeError{ContentType: contentType})
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}

	return nil
}
