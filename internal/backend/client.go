// Package backend holds the JSON-over-HTTP plumbing shared by the chat and
// verification clients: request building, status checks, decoding and the
// transport error taxonomy.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxErrorBody bounds how much of a failed response body ends up in errors.
const maxErrorBody = 512

var tracer = otel.Tracer("domainagent/internal/backend")

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues JSON requests against one base URL.
type Client struct {
	base string
	http HTTPDoer
}

// NewClient creates a Client. A nil doer gets an http.Client with timeout.
func NewClient(baseURL string, doer HTTPDoer, timeout time.Duration) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: doer,
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// DoJSON sends in (when non-nil) as JSON and decodes a 2xx response into out
// (when non-nil). Every failure is returned as *Error.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	ctx, span := tracer.Start(ctx, method+" "+path)
	defer span.End()

	err := c.doJSON(ctx, method, path, in, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(GetCategory(err)))
	}
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return NewError(ErrorInternal, path, "encode request", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return NewError(ErrorInternal, path, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(path, err)
	}
	defer resp.Body.Close()

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewError(ErrorBadData, path, fmt.Sprintf("decode %s response", path), err)
	}
	return nil
}
