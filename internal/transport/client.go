// Package transport is the sole network boundary between a conversation
// session and the remote chat service. It translates plain text into the
// wire contract and back; it does not interpret status codes beyond the
// 2xx pass/fail line and it never retries.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/officeflow/deskchat/internal/config"
)

// Error wraps any failure sending or receiving a chat turn: network faults,
// non-2xx statuses, and undecodable bodies all surface as *Error.
type Error struct {
	Op     string // "send" or "history"
	Status int    // HTTP status, 0 for faults before a response arrived
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport: %s: unexpected status code: %d", e.Op, e.Status)
	}
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Reply is the live response to one submitted message. Pointer fields are
// absent-vs-zero significant: a nil Score means the server attached none.
type Reply struct {
	Response       string   `json:"response"`
	Score          *float64 `json:"score,omitempty"`
	Model          string   `json:"model,omitempty"`
	Confidence     string   `json:"confidence,omitempty"`
	ProcessingTime *float64 `json:"processing_time,omitempty"`
}

// TurnRecord is one persisted turn as returned by the history endpoint,
// newest-first. CreatedAt is kept opaque: the server emits ISO 8601 without
// a timezone suffix, which time.Time refuses to parse.
type TurnRecord struct {
	ID             string   `json:"id"`
	Message        string   `json:"message"`
	Response       string   `json:"response"`
	Score          *float64 `json:"score,omitempty"`
	Model          string   `json:"model,omitempty"`
	Confidence     string   `json:"confidence,omitempty"`
	ProcessingTime *float64 `json:"processing_time,omitempty"`
	CreatedAt      string   `json:"created_at,omitempty"`
}

type sendRequest struct {
	Message string `json:"message"`
}

// Client talks to the chat endpoints of the console backend.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a chat transport client. A zero timeout disables the
// client-side deadline entirely.
func New(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// Send posts one user message and returns the assistant reply.
func (c *Client) Send(ctx context.Context, message string) (*Reply, error) {
	body, err := json.Marshal(sendRequest{Message: message})
	if err != nil {
		return nil, &Error{Op: "send", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewBuffer(body))
	if err != nil {
		return nil, &Error{Op: "send", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Op: "send", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{Op: "send", Status: resp.StatusCode}
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, &Error{Op: "send", Err: err}
	}
	return &reply, nil
}

// History retrieves prior turns in the server's order (newest-first).
func (c *Client) History(ctx context.Context) ([]TurnRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/chat/history", nil)
	if err != nil {
		return nil, &Error{Op: "history", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Op: "history", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{Op: "history", Status: resp.StatusCode}
	}

	var records []TurnRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, &Error{Op: "history", Err: err}
	}
	return records, nil
}
