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

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tgienger/coreterra/internal/logging"
	"github.com/tgienger/coreterra/internal/nav"
)

// DefaultBaseURL is used when no backend URL is configured
const DefaultBaseURL = "http://localhost:8000"

// RequestIDHeader carries a per-request id for correlating logs
const RequestIDHeader = "X-Request-ID"

// Client talks to the Coreterra REST backend. It attaches the stored bearer
// token to every request and handles 401 responses globally: the token is
// purged and the application is navigated to the login route.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    TokenStore
	navigator nav.Navigator
	metrics   *Metrics
	log       *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the transport
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a per-request timeout. The default is none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithNavigator sets who is told to show the login route after a 401
func WithNavigator(n nav.Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// WithMetrics registers request metrics on reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) { c.metrics = NewMetrics(reg) }
}

// WithLogger replaces the diagnostic logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the backend at baseURL
func New(baseURL string, tokens TokenStore, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	if tokens == nil {
		tokens = NewMemoryTokens("")
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{},
		tokens:  tokens,
		log:     logging.API(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetNavigator replaces the navigator after construction. The UI is usually
// created after the client, so it registers itself here.
func (c *Client) SetNavigator(n nav.Navigator) {
	c.navigator = n
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string { return c.baseURL }

// Tokens returns the client's token store
func (c *Client) Tokens() TokenStore { return c.tokens }

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (b errorBody) text() string {
	if len(b.Detail) > 0 {
		var s string
		if json.Unmarshal(b.Detail, &s) == nil {
			return s
		}
		// FastAPI validation errors are a list of objects
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(b.Detail, &items) == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				msgs = append(msgs, it.Msg)
			}
			return strings.Join(msgs, "; ")
		}
		return string(b.Detail)
	}
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

// do performs one request. in is JSON-encoded when non-nil; out is decoded
// from a non-empty 2xx body when non-nil. There are no retries.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	token, err := c.tokens.Token()
	if err != nil {
		c.log.Warn("read stored token", "op", op, "error", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(op, method, 0, time.Since(start))
		c.log.Warn("request failed", "op", op, "method", method, "path", path, "request_id", reqID, "error", err)
		return &Error{Op: op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.observe(op, method, resp.StatusCode, time.Since(start))
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, Status: resp.StatusCode, Err: err}
	}
	c.log.Debug("request", "op", op, "method", method, "path", path,
		"status", resp.StatusCode, "request_id", reqID, "elapsed", time.Since(start))

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.Unmarshal(respBody, &eb)
		apiErr := &Error{
			Op:      op,
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: eb.text(),
		}
		if apiErr.Kind == KindUnauthorized {
			c.unauthorized(op)
		} else {
			c.log.Warn("request rejected", "op", op, "status", resp.StatusCode, "detail", apiErr.Message, "request_id", reqID)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Op: op, Kind: KindDecode, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// unauthorized purges the token and sends the app to the login route
func (c *Client) unauthorized(op string) {
	c.log.Info("unauthorized response, clearing session", "op", op)
	if err := c.tokens.ClearToken(); err != nil {
		c.log.Error("clear stored token", "error", err)
	}
	if c.navigator != nil {
		c.navigator.Navigate(nav.RouteLogin)
	}
}

// Health pings the backend's health endpoint
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, nil, &out); err != nil {
		return err
	}
	if out.Status != "" && out.Status != "healthy" {
		return fmt.Errorf("backend reports status %q", out.Status)
	}
	return nil
}
