// Package api is the HTTP transport used by the remote repository.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/model"
)

const DefaultTimeout = 30 * time.Second

// TokenSource yields the bearer token to attach, or "" when logged out.
type TokenSource interface {
	BearerToken() (string, error)
}

// Client issues JSON requests against a base URL. Construct one per remote
// repository and pass it in; there is no package-level instance.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	headers http.Header
	logger  *log.Logger
}

// Option tunes a Client.
type Option func(*Client)

// WithTimeout sets the request timeout on a copy of the current http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient parses baseURL and applies opts.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		headers: http.Header{},
		logger:  log.Default(),
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// SetHeader sets a default header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.headers.Set(key, value)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	// path is already escaped; keep both forms so url.URL does not escape it again.
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + "/" + strings.TrimLeft(path, "/")
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return fmt.Errorf("bad path %q: %w", path, err)
	}
	u.Path = unescaped
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.tokens != nil {
		tok, err := c.tokens.BearerToken()
		if err != nil {
			c.logger.Debug("token lookup failed", "error", err)
		} else if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Error("network error", "method", method, "url", u.String(), "error", err)
		return fmt.Errorf("%w: %s %s: %v", model.ErrBackendUnavailable, method, u.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", model.ErrBackendUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Method: method, Path: u.Path, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
		c.logStatus(se)
		return se
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) logStatus(se *StatusError) {
	switch {
	case se.StatusCode == http.StatusUnauthorized:
		c.logger.Warn("unauthorized access", "path", se.Path)
	case se.StatusCode == http.StatusForbidden:
		c.logger.Warn("access forbidden", "path", se.Path)
	case se.StatusCode == http.StatusNotFound:
		c.logger.Debug("resource not found", "path", se.Path)
	case se.StatusCode >= 500:
		c.logger.Error("server error", "path", se.Path, "status", se.StatusCode)
	default:
		c.logger.Info("request failed", "path", se.Path, "status", se.StatusCode)
	}
}

// errorMessage pulls {"error": "..."} out of a body, or returns it trimmed.
func errorMessage(raw []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		return e.Error
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
