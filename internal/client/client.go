// Package client talks to the document, checkpoint and citation stores and
// to the editor access gate over REST.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxTries    = 3
	DefaultRetryDelay  = 200 * time.Millisecond
	DefaultMaxDelay    = time.Second
	maxErrorDetailSize = 512
)

// Client is safe for concurrent use. The base url includes the api prefix,
// e.g. http://localhost:4001/api.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string

	maxTries   uint
	retryDelay time.Duration
	maxDelay   time.Duration
}

type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRetry tunes the retries of idempotent reads. maxTries of 1 disables
// them.
func WithRetry(maxTries uint, delay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.maxTries = maxTries
		c.retryDelay = delay
		c.maxDelay = maxDelay
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxTries:   DefaultMaxTries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxTries == 0 {
		c.maxTries = 1
	}
	return c
}

// SetAuthToken replaces the bearer token.
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

// call runs one request. GETs are retried on network failures and transient
// statuses; writes are sent exactly once.
func (c *Client) call(ctx context.Context, method, path string, body, target any) error {
	if method != http.MethodGet || c.maxTries <= 1 {
		return c.do(ctx, method, path, body, target)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelay
	b.MaxInterval = c.maxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.5

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.do(ctx, method, path, body, target)
		if err != nil && !retryable(ctx, err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxTries))

	if err != nil && !errors.Is(err, ErrNetworkFailure) && !errors.Is(err, ErrRejectedByServer) {
		// the context ended while waiting between attempts
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	return decodeResponse(method, path, resp, target)
}

// doRequest performs an HTTP request with the json and auth headers set.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	return c.httpClient.Do(req)
}

// decodeResponse reads the body into target, or into a ServerError when the
// status is not 2xx. A *json.RawMessage target receives the body verbatim.
func decodeResponse(method, path string, resp *http.Response, target any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(data),
		}
	}

	if target == nil || resp.StatusCode == http.StatusNoContent || len(data) == 0 {
		return nil
	}
	if raw, ok := target.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &ServerError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     fmt.Sprintf("failed to decode response: %v", err),
		}
	}

	return nil
}

// errorDetail picks a message out of a problem or {"detail": ...} body.
func errorDetail(data []byte) string {
	if gjson.ValidBytes(data) {
		for _, key := range []string{"detail", "title", "error", "message"} {
			if v := gjson.GetBytes(data, key); v.Exists() && v.Type == gjson.String && v.Str != "" {
				return v.Str
			}
		}
	}
	if len(data) > maxErrorDetailSize {
		data = data[:maxErrorDetailSize]
	}
	return string(bytes.TrimSpace(data))
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrNetworkFailure) {
		return true
	}
	switch StatusCode(err) {
	case http.StatusRequestTimeout,
		http.StatusTooEarly,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
