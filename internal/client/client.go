// Package client is the consumer side of the events API: a typed HTTP client
// and a Repository that mirrors the last server-confirmed event list into a
// durable snapshot.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"eventify/internal/model"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Client talks to the /api/events endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL, e.g. http://localhost:8080. A nil
// httpClient uses a client with a 15s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) eventsURL(suffix string) string {
	return c.baseURL + "/api/events" + suffix
}

// ListEvents fetches the full, unfiltered event list.
func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.do(ctx, http.MethodGet, c.eventsURL(""), nil, "Failed to load events", &events); err != nil {
		return nil, err
	}
	if events == nil {
		return nil, fmt.Errorf("load events: bad response")
	}
	return events, nil
}

// CreateEvent posts fields (title, date, time, category, priority, notes).
func (c *Client) CreateEvent(ctx context.Context, fields map[string]any) (model.Event, error) {
	var created model.Event
	err := c.do(ctx, http.MethodPost, c.eventsURL(""), fields, "Failed to create event", &created)
	return created, err
}

// UpdateEvent sends a partial update.
func (c *Client) UpdateEvent(ctx context.Context, id uint, fields map[string]any) (model.Event, error) {
	var updated model.Event
	err := c.do(ctx, http.MethodPatch, c.eventsURL(fmt.Sprintf("/%d", id)), fields, "Failed to update event", &updated)
	return updated, err
}

// SetDone uses the dedicated done endpoint.
func (c *Client) SetDone(ctx context.Context, id uint, done bool) (model.Event, error) {
	var updated model.Event
	err := c.do(ctx, http.MethodPatch, c.eventsURL(fmt.Sprintf("/%d/done", id)), map[string]any{"done": done}, "Failed to update event", &updated)
	return updated, err
}

func (c *Client) DeleteEvent(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, c.eventsURL(fmt.Sprintf("/%d", id)), nil, "Failed to delete event", nil)
}

// do sends body as JSON and decodes a 2xx answer into out. fallback is the
// message used when an error answer carries no error field.
func (c *Client) do(ctx context.Context, method, url string, body any, fallback string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fallback
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
