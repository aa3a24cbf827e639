// Package chat is the client for the AI chat backend. It sends one user
// message per call and returns the assistant reply with its optional
// candidate-domain payload.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"domainagent/internal/backend"
)

const (
	chatPath    = "/agent/chat"
	sessionPath = "/agent/session/"

	defaultTimeout = 60 * time.Second
)

// Client talks to the chat backend.
type Client struct {
	api     *backend.Client
	logger  *slog.Logger
	doer    backend.HTTPDoer
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPDoer replaces the underlying HTTP client.
func WithHTTPDoer(doer backend.HTTPDoer) Option {
	return func(c *Client) {
		c.doer = doer
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a chat client rooted at baseURL (e.g. http://host:8080/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		logger:  slog.Default(),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.api = backend.NewClient(baseURL, c.doer, c.timeout)
	return c
}

// SendTurn posts one user message. sessionID must be empty on the first turn
// of a conversation. Failures are *backend.Error.
func (c *Client) SendTurn(ctx context.Context, message, sessionID string) (*Response, error) {
	var wire wireResponse
	err := c.api.DoJSON(ctx, http.MethodPost, chatPath, Request{
		Message:   message,
		SessionID: sessionID,
	}, &wire)
	if err != nil {
		return nil, err
	}

	payload, err := decodePayload(wire.Data)
	if err != nil {
		return nil, backend.NewError(backend.ErrorBadData, chatPath, "decode chat data", err)
	}

	c.logger.DebugContext(ctx, "chat turn completed",
		"session_id", wire.SessionID,
		"intent", wire.Intent,
		"action", wire.Action,
		"candidates", candidateCount(payload),
	)

	return &Response{
		SessionID: wire.SessionID,
		Message:   wire.Message,
		Intent:    wire.Intent,
		Action:    wire.Action,
		Payload:   payload,
		Timestamp: wire.Timestamp,
	}, nil
}

// GetSession fetches the backend's record of a chat session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, backend.NewError(backend.ErrorInternal, sessionPath, "session id is required", nil)
	}
	var session Session
	if err := c.api.DoJSON(ctx, http.MethodGet, sessionPath+url.PathEscape(sessionID), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func decodePayload(raw json.RawMessage) (*Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var wire wirePayload
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("unexpected data shape: %w", err)
	}
	return &Payload{
		Domains:       wire.Domains,
		DomainReasons: wire.DomainReasons,
		Keywords:      wire.Keywords,
	}, nil
}

func candidateCount(p *Payload) int {
	if p == nil {
		return 0
	}
	return len(p.Domains)
}
