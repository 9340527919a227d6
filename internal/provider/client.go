// Package provider is the HTTP client for the upstream calendar and task
// APIs. Every call carries the caller's bearer token; responses are returned
// verbatim as pretty-printed JSON so tool results preserve the provider's
// field order.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ai-scheduler/agent-gateway/pkg/logger"
)

// APIError is a non-2xx response from the provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.Status, e.Message)
}

// Client calls the upstream calendar and task APIs.
type Client struct {
	httpClient   *http.Client
	calendarBase string
	tasksBase    string
	logger       *logger.Logger
}

// New creates a provider client.
func New(calendarBase, tasksBase string, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		calendarBase: strings.TrimSuffix(calendarBase, "/"),
		tasksBase:    strings.TrimSuffix(tasksBase, "/"),
		logger:       log,
	}
}

// ListCalendars returns the caller's calendar list.
func (c *Client) ListCalendars(ctx context.Context, token string) (string, error) {
	return c.get(ctx, token, c.calendarBase+"/users/me/calendarList", nil)
}

// ListEvents returns events for one calendar within a time window. The
// provider expands recurring events and orders by start time.
func (c *Client) ListEvents(ctx context.Context, token, calendarID, timeMin, timeMax string) (string, error) {
	params := url.Values{}
	params.Set("timeMin", timeMin)
	params.Set("timeMax", timeMax)
	params.Set("maxResults", "10")
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	endpoint := c.calendarBase + "/calendars/" + url.PathEscape(calendarID) + "/events"
	return c.get(ctx, token, endpoint, params)
}

// CreateEvent inserts an event on the given calendar. Non-idempotent: a
// retried call creates a duplicate since no idempotency key is applied.
func (c *Client) CreateEvent(ctx context.Context, token, calendarID string, event any) (string, error) {
	endpoint := c.calendarBase + "/calendars/" + url.PathEscape(calendarID) + "/events"
	return c.post(ctx, token, endpoint, event)
}

// SearchEvents searches one calendar by free-text query.
func (c *Client) SearchEvents(ctx context.Context, token, calendarID, query string, maxResults int) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("singleEvents", "true")
	endpoint := c.calendarBase + "/calendars/" + url.PathEscape(calendarID) + "/events"
	return c.get(ctx, token, endpoint, params)
}

// FreeBusy queries busy intervals for one or more calendars over a window.
func (c *Client) FreeBusy(ctx context.Context, token string, calendarIDs []string, timeMin, timeMax string) (string, error) {
	items := make([]map[string]string, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = map[string]string{"id": id}
	}
	body := map[string]any{
		"timeMin": timeMin,
		"timeMax": timeMax,
		"items":   items,
	}
	return c.post(ctx, token, c.calendarBase+"/freeBusy", body)
}

// ListTaskLists returns the caller's task lists.
func (c *Client) ListTaskLists(ctx context.Context, token string) (string, error) {
	return c.get(ctx, token, c.tasksBase+"/users/@me/lists", nil)
}

// ListTasks returns tasks in one task list.
func (c *Client) ListTasks(ctx context.Context, token, taskListID string) (string, error) {
	endpoint := c.tasksBase + "/lists/" + url.PathEscape(taskListID) + "/tasks"
	return c.get(ctx, token, endpoint, nil)
}

// CreateTask inserts a task into the given task list. Non-idempotent, same
// caveat as CreateEvent.
func (c *Client) CreateTask(ctx context.Context, token, taskListID string, task any) (string, error) {
	endpoint := c.tasksBase + "/lists/" + url.PathEscape(taskListID) + "/tasks"
	return c.post(ctx, token, endpoint, task)
}

func (c *Client) get(ctx context.Context, token, endpoint string, params url.Values) (string, error) {
	if params != nil {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, token)
}

func (c *Client) post(ctx context.Context, token, endpoint string, body any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, token)
}

func (c *Client) do(req *http.Request, token string) (string, error) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("provider call failed",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
		)
		return "", &APIError{Status: resp.StatusCode, Message: compactError(raw, resp.Status)}
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		// provider sent something that is not JSON; pass it through as-is
		return string(raw), nil
	}
	return pretty.String(), nil
}

// compactError extracts a short human-readable message from an error body.
func compactError(raw []byte, fallback string) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return fallback
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
