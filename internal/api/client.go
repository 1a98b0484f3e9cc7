// Package api is the typed client for the Llamero control plane REST surface.
//
// The base client handles request marshaling, bearer auth, request
// correlation, retries for idempotent reads, and uniform error parsing.
// Streaming calls never retry: partial output may already have been consumed.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"llamero/internal/pkg/httpclient"
)

// TokenSource supplies the current bearer token. The session manager is the
// canonical implementation; tests substitute a literal.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource wrapping a fixed credential.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Config holds base client settings.
type Config struct {
	// BaseURL is the control plane root, without a trailing slash.
	BaseURL string

	// MaxRetries applies to idempotent GETs only (default 0).
	MaxRetries     int
	InitialBackoff time.Duration
	BackoffFactor  float64

	// Transport settings for the underlying clients.
	HTTP httpclient.Config
}

// DefaultConfig returns client settings for the given control plane URL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		BackoffFactor:  2.0,
		HTTP:           httpclient.DefaultConfig(),
	}
}

// Client is the control plane HTTP client.
type Client struct {
	cfg       Config
	http      *http.Client
	streaming *http.Client
	tokens    TokenSource
}

// New creates a Client. tokens may be nil for unauthenticated use.
func New(cfg Config, tokens TokenSource) *Client {
	return &Client{
		cfg:       cfg,
		http:      httpclient.New(cfg.HTTP),
		streaming: httpclient.NewStreaming(cfg.HTTP),
		tokens:    tokens,
	}
}

// Request describes one control-plane call.
type Request struct {
	Method   string
	Endpoint string
	Body     any // JSON-marshaled when non-nil
	Headers  map[string]string
	// NoRetry forces a single attempt even for idempotent reads. Dispatched
	// console actions are single-shot exchanges.
	NoRetry bool
}

// Response is a fully buffered control-plane response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Do executes a buffered request and unmarshals a 2xx response into result.
func (c *Client) Do(ctx context.Context, req Request, result any) error {
	resp, err := c.DoRaw(ctx, req)
	if err != nil {
		return err
	}
	if result != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return NewTransportError("failed to decode response: "+err.Error(), err)
		}
	}
	return nil
}

// DoRaw executes a buffered request, retrying idempotent reads on transport
// failures and retryable statuses. A non-2xx final status becomes an APIError
// carrying the response body's message.
func (c *Client) DoRaw(ctx context.Context, req Request) (*Response, error) {
	attempts := 1
	if !req.NoRetry && req.Method == http.MethodGet && c.cfg.MaxRetries > 0 {
		attempts = c.cfg.MaxRetries + 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		resp, err := c.doOnce(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if retryableStatus(resp.StatusCode) && attempt < attempts-1 {
			lastErr = ParseAPIError(resp.StatusCode, resp.Body)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, ParseAPIError(resp.StatusCode, resp.Body)
		}
		return resp, nil
	}
	return nil, lastErr
}

// DoStream executes a request and returns the raw response body for
// incremental consumption. The caller must close it. Never retries.
func (c *Client) DoStream(ctx context.Context, req Request) (io.ReadCloser, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.streaming.Do(httpReq)
	if err != nil {
		return nil, NewTransportError("request failed: "+err.Error(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, ParseAPIError(resp.StatusCode, body)
	}
	return resp.Body, nil
}

func (c *Client) doOnce(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, NewTransportError("request failed: "+err.Error(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError("failed to read response: "+err.Error(), err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, NewTransportError("failed to marshal request: "+err.Error(), err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.cfg.BaseURL+req.Endpoint, bodyReader)
	if err != nil {
		return nil, NewTransportError("failed to create request: "+err.Error(), err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	return httpReq, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.cfg.InitialBackoff
	if d <= 0 {
		d = 500 * time.Millisecond
	}
	factor := c.cfg.BackoffFactor
	if factor <= 1 {
		factor = 2.0
	}
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * factor)
	}
	return d
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}
