// Package orb is a minimal client for the Orb billing API, covering the
// three operations the loader consumes: fetch customer by external id,
// create customer, and ingest usage events. Failures map onto a closed set
// of error types (ConnectionError, RateLimitError, NotFoundError,
// StatusError) so callers can branch on failure class.
package orb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Orb API endpoint.
const DefaultBaseURL = "https://api.withorb.com/v1"

const defaultTimeout = 30 * time.Second

// Client talks to the Orb API. Create one with NewClient and release it
// with Close when the run is finished.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	Customers *CustomerService
	Events    *EventService
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a Client authenticated with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Customers = &CustomerService{client: c}
	c.Events = &EventService{client: c}

	return c
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// do performs one API request. body (if non-nil) is marshaled to JSON; a
// 2xx response is unmarshaled into out (if non-nil). Non-2xx responses are
// returned as the matching typed error.
func (c *Client) do(ctx context.Context, method, path, idempotencyKey string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("orb: marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("orb: build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("orb: read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("orb: decode response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Body: string(respBody)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Body: string(respBody)}
	default:
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
}
