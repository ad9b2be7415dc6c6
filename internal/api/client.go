package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Error is a failed API call. StatusCode is zero for transport-level
// failures.
type Error struct {
	StatusCode int
	Body       string
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Client talks to a Nowledge Mem server. Search-shaped responses are
// returned as raw JSON; response-shape normalization lives with the
// consumers.
type Client struct {
	baseURL       string
	authToken     string
	httpClient    *http.Client
	timeoutHealth time.Duration
}

func New(baseURL, authToken string, timeout, timeoutHealth time.Duration) *Client {
	return &Client{
		baseURL:       trimTrailingSlash(baseURL),
		authToken:     authToken,
		httpClient:    &http.Client{Timeout: timeout},
		timeoutHealth: timeoutHealth,
	}
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

var successCodes = map[int]bool{200: true, 201: true, 202: true, 204: true}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	// Omit the Authorization header entirely when no token is configured.
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}

// do runs a request and returns the raw response body on success. Non-2xx
// statuses and transport failures become *Error values.
func (c *Client) do(method, path string, query url.Values, body any, op string) (json.RawMessage, error) {
	req, err := c.newRequest(context.Background(), method, path, query, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("%s failed: %v", op, err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("%s failed reading response: %v", op, err)}
	}

	if !successCodes[resp.StatusCode] {
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Body:       string(data),
			Message:    fmt.Sprintf("%s failed: %d - %s", op, resp.StatusCode, excerpt(data, 200)),
		}
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return json.RawMessage(data), nil
}

func excerpt(data []byte, n int) string {
	if len(data) > n {
		return string(data[:n])
	}
	return string(data)
}

// Health reports whether the server's health endpoint answers 200 within
// the health timeout.
func (c *Client) Health() (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeoutHealth)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return true, nil
}

// AuthCheck verifies credentials with a minimal authenticated request.
func (c *Client) AuthCheck() (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeoutHealth)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/threads", url.Values{"limit": {"1"}}, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("auth check failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return false, fmt.Errorf("authentication failed: invalid or expired token")
	case resp.StatusCode == http.StatusForbidden:
		return false, fmt.Errorf("authorization failed: insufficient permissions")
	case successCodes[resp.StatusCode]:
		return true, nil
	}
	return true, fmt.Errorf("auth check returned %d (may be OK)", resp.StatusCode)
}

// AddMemoryInput holds the optional fields of a new memory.
type AddMemoryInput struct {
	Content         string   `json:"content"`
	Importance      float64  `json:"importance"`
	Title           string   `json:"title,omitempty"`
	Labels          []string `json:"labels,omitempty"`
	EventStart      string   `json:"event_start,omitempty"`
	EventEnd        string   `json:"event_end,omitempty"`
	TemporalContext string   `json:"temporal_context,omitempty"`
}

func (c *Client) AddMemory(input AddMemoryInput) (json.RawMessage, error) {
	return c.do(http.MethodPost, "/memories", nil, input, "add memory")
}

// UpdateMemory patches a memory; only non-nil fields are sent.
func (c *Client) UpdateMemory(memoryID string, fields map[string]any) (json.RawMessage, error) {
	return c.do(http.MethodPatch, "/memories/"+memoryID, nil, fields, "update memory")
}

func (c *Client) DeleteMemory(memoryID string) error {
	_, err := c.do(http.MethodDelete, "/memories/"+memoryID, nil, nil, "delete memory")
	return err
}

// SearchMemories runs semantic memory search in "deep" mode.
func (c *Client) SearchMemories(query string, limit int) (json.RawMessage, error) {
	payload := map[string]any{"query": query, "limit": limit, "mode": "deep"}
	return c.do(http.MethodPost, "/memories/search", nil, payload, "memory search")
}

func (c *Client) ListLabels() (json.RawMessage, error) {
	return c.do(http.MethodGet, "/labels", nil, nil, "list labels")
}

// SearchThreads searches threads with message matching.
func (c *Client) SearchThreads(query string, limit int) (json.RawMessage, error) {
	params := url.Values{
		"query": {query},
		"limit": {strconv.Itoa(limit)},
		"mode":  {"full"},
	}
	return c.do(http.MethodGet, "/threads/search", params, nil, "thread search")
}

// GetThread fetches one thread with its messages.
func (c *Client) GetThread(threadID string) (json.RawMessage, error) {
	return c.do(http.MethodGet, "/threads/"+threadID, nil, nil, "get thread")
}
