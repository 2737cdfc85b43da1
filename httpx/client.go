// Package httpx is the HTTP transport adapter: it resolves engine paths
// against a base URL, executes requests, and returns timed responses.
package httpx

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stampede/session"
)

// maxBodySize limits how much of a response body is retained. Large enough
// for JSON extraction from sizeable payloads.
const maxBodySize = 10 * 1024 * 1024

// maxLogBodySize limits response bytes included in debug logs.
const maxLogBodySize = 1024

// Client implements session.HTTPAdapter over net/http.
type Client struct {
	Base   string
	Client *http.Client
	Log    *slog.Logger
}

// NewClient creates an adapter resolving relative paths against base.
// A nil hc uses a client with keep-alives and no client-level timeout;
// deadlines come from the request context.
func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{Base: base, Client: hc}
}

// Do executes one request and returns the timed response. Transport and
// context failures are errors; HTTP status codes are data.
func (c *Client) Do(ctx context.Context, method, path string, opts session.HTTPOptions) (*session.HTTPResponse, error) {
	target, err := c.resolve(path, opts.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	c.logger().Debug("http request", "method", method, "url", target)

	start := time.Now()
	resp, err := c.Client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger().Debug("http transport error", "method", method, "url", target, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	// Drain any remainder to allow connection reuse.
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger().Debug("http response",
		"method", method, "url", target,
		"status", resp.StatusCode, "elapsed", elapsed.Round(time.Millisecond),
		"body", truncate(respBody))

	return &session.HTTPResponse{
		Status:  resp.StatusCode,
		Header:  resp.Header,
		Body:    respBody,
		Elapsed: elapsed,
	}, nil
}

// resolve joins path with the base URL and encodes the query. Absolute URLs
// pass through untouched.
func (c *Client) resolve(path string, query map[string]string) (string, error) {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = strings.TrimSuffix(c.Base, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	if len(query) == 0 {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

func truncate(body []byte) string {
	if len(body) <= maxLogBodySize {
		return string(body)
	}
	return string(body[:maxLogBodySize]) + "...(truncated)"
}
