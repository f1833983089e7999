// Package gqlclient is a small GraphQL-over-HTTP client used by the
// maintenance jobs to call the CRM endpoint.
package gqlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 8 << 20

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected HTTP status")

// GraphQLError is one entry of a response's errors list.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Code returns extensions.code, or "".
func (e GraphQLError) Code() string {
	code, _ := e.Extensions["code"].(string)
	return code
}

// ResponseError is returned when the server answered with GraphQL errors.
type ResponseError struct {
	Errors []GraphQLError
}

func (e *ResponseError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Options configures a Client.
type Options struct {
	// APIKey is sent as a Bearer token when set.
	APIKey string
	// Retries after the first attempt for transport errors and 5xx.
	// Negative disables retries; zero means DefaultRetries.
	Retries    int
	BaseDelay  time.Duration
	HTTPClient *http.Client
}

// Client posts GraphQL requests to one endpoint.
type Client struct {
	url       string
	apiKey    string
	retries   int
	baseDelay time.Duration
	http      *http.Client
}

// New creates a Client for url.
func New(url string, opts Options) *Client {
	c := &Client{
		url:       url,
		apiKey:    opts.APIKey,
		retries:   opts.Retries,
		baseDelay: opts.BaseDelay,
		http:      opts.HTTPClient,
	}
	switch {
	case c.retries == 0:
		c.retries = DefaultRetries
	case c.retries < 0:
		c.retries = 0
	}
	if c.baseDelay <= 0 {
		c.baseDelay = DefaultBaseDelay
	}
	if c.http == nil {
		c.http = NewHTTPClient(DefaultTimeout)
	}
	return c
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// retryable marks failures worth another attempt.
type retryable struct{ err error }

func (r retryable) Error() string { return r.err.Error() }
func (r retryable) Unwrap() error { return r.err }

// Do executes query with variables and decodes the data member into out,
// which may be nil. GraphQL errors are returned as *ResponseError and are
// never retried.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(retryDelay(c.baseDelay, attempt-1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("graphql request: %w (last error: %v)", ctx.Err(), lastErr)
			case <-timer.C:
			}
		}

		err := c.once(ctx, body, out)
		if err == nil {
			return nil
		}

		var r retryable
		if !errors.As(err, &r) || ctx.Err() != nil {
			return err
		}
		lastErr = r.err
	}

	return fmt.Errorf("graphql request failed after %d attempts: %w", c.retries+1, lastErr)
}

func (c *Client) once(ctx context.Context, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "graphcrm-jobs/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if id := requestIDFrom(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return retryable{fmt.Errorf("post %s: %w", c.url, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return retryable{fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= 500 {
		return retryable{fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)}
	}

	var decoded response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if resp.StatusCode >= 300 {
			return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if len(decoded.Errors) > 0 {
		return &ResponseError{Errors: decoded.Errors}
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	if out != nil && len(decoded.Data) > 0 {
		if err := json.Unmarshal(decoded.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
