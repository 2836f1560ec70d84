package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/edulms/admin-console/pkg/errors"
)

const requestIDHeader = "X-Request-ID"

// TokenSource yields the bearer token attached to authenticated calls. It
// is read at the start of every request, so a token released mid-flight
// simply lets the in-flight call finish with the stale value.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the thin JSON transport in front of the LMS REST API. It never
// retries and carries no timeout unless one was configured.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
	metrics *Metrics
}

// Option customises a Client.
type Option func(*Client)

// WithLogger attaches a request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTimeout bounds every request. Zero keeps the default of no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient swaps the underlying http client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient builds a Client for the given base URL. tokens may be nil for a
// purely unauthenticated client.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.KindRequest, 0, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindRequest, 0, "build request")
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.observe(method, path, 0, latency)
		c.logger.Warn("api_request_failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return apperrors.Wrap(err, apperrors.KindRequest, 0, apperrors.ErrConnection.Message)
	}
	defer resp.Body.Close() //nolint:errcheck

	c.observe(method, path, resp.StatusCode, latency)
	c.logger.Debug("api_request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", latency),
		zap.String("request_id", req.Header.Get(requestIDHeader)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}

	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindRequest, resp.StatusCode, "read response body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Wrap(err, apperrors.KindRequest, resp.StatusCode, "decode response body")
	}
	return nil
}

// decodeError turns a non-2xx response into a typed error. The server is
// expected to answer errors as {"detail": "..."}; anything else falls back
// to the body text, then to a generic message.
func (c *Client) decodeError(resp *http.Response) error {
	kind := apperrors.KindRequest
	if resp.StatusCode == http.StatusUnauthorized {
		kind = apperrors.KindAuth
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		return apperrors.New(kind, resp.StatusCode, payload.Detail)
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		return apperrors.New(kind, resp.StatusCode, text)
	}

	return apperrors.New(kind, resp.StatusCode, fmt.Sprintf("server responded with %s", resp.Status))
}

func (c *Client) observe(method, path string, status int, latency time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveRequest(method, path, status, latency)
	}
}
