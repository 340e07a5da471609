package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/relayview/internal/metrics"
	"github.com/mcoot/relayview/internal/model"
)

// DefaultTimeout is the transport timeout for upstream requests.
// There are no retries; a request that fails is reported to the caller.
const DefaultTimeout = 30 * time.Second

// Client is an HTTP client for the upstream site
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    metrics.Metrics
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header sent upstream
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a new upstream client
func NewClient(baseURL string, m metrics.Metrics, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: "relayview/1.0",
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		metrics: m,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error is a non-2xx response from upstream
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream HTTP %d", e.Status)
	}
	return fmt.Sprintf("upstream HTTP %d: %s", e.Status, e.Message)
}

// Unwrap lets callers match a missing resource with errors.Is(err, model.ErrNotFound)
func (e *Error) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return model.ErrNotFound
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

// request describes one upstream call
type request struct {
	endpoint string // metrics label
	method   string
	path     string
	query    url.Values
	form     url.Values
	// anyStatus decodes the body into result even on error statuses.
	// Checkout endpoints report failures as {"error": "..."} bodies.
	anyStatus bool
}

func (c *Client) do(ctx context.Context, r request, result any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var bodyReader io.Reader
	if r.form != nil {
		bodyReader = strings.NewReader(r.form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if r.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstreamRequest(r.endpoint, 0, time.Since(start).Seconds())
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.ObserveUpstreamRequest(r.endpoint, resp.StatusCode, time.Since(start).Seconds())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 && !r.anyStatus {
		var errResp errorBody
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return &Error{Status: resp.StatusCode, Message: errResp.Error}
		}
		return &Error{Status: resp.StatusCode, Message: string(bytes.TrimSpace(respBody))}
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			if resp.StatusCode >= 400 {
				return &Error{Status: resp.StatusCode, Message: string(bytes.TrimSpace(respBody))}
			}
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
