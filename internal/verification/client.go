// Package verification is the client for the domain-availability backend.
// CheckDomains always issues a single batched request, never one per domain.
package verification

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"domainagent/internal/backend"
	pstrings "domainagent/pkg/platform/strings"
)

const (
	checkPath   = "/domains/check"
	suggestPath = "/domains/suggest"

	defaultTimeout = 30 * time.Second
)

// Client talks to the verification backend.
type Client struct {
	api     *backend.Client
	logger  *slog.Logger
	doer    backend.HTTPDoer
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPDoer(doer backend.HTTPDoer) Option {
	return func(c *Client) {
		c.doer = doer
	}
}

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

// New creates a verification client rooted at baseURL.
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

// CheckDomains verifies domains in one call. Duplicates are sent as given;
// results come back at most once per domain in backend order.
func (c *Client) CheckDomains(ctx context.Context, domains []string) ([]Result, error) {
	var resp checkResponse
	if err := c.api.DoJSON(ctx, http.MethodPost, checkPath, CheckRequest{Domains: domains}, &resp); err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "domains checked",
		"requested", len(domains),
		"returned", len(resp.Results),
	)
	return resp.Results, nil
}

// SuggestDomains asks the backend for generated ideas. Keywords are trimmed
// and de-duplicated before sending.
func (c *Client) SuggestDomains(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	req.Keywords = pstrings.DedupeAndTrim(req.Keywords)
	req.TLDs = pstrings.DedupeAndTrimLower(req.TLDs)

	var resp suggestResponse
	if err := c.api.DoJSON(ctx, http.MethodPost, suggestPath, req, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}
