// Package fetch is the shared HTTP layer for every upstream the
// dashboard talks to. All clients get the same policy: a flat
// per-request timeout and a fixed exponential backoff of 1s, 2s, 4s
// on retryable failures.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds a single upstream request
	DefaultTimeout = 10 * time.Second
	// DefaultMaxRetries is the number of retries after the first attempt
	DefaultMaxRetries = 3
)

// Client issues JSON requests with retry. The zero value is not usable;
// construct with New.
type Client struct {
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// New builds a client with the given per-request timeout and retry
// count. Non-positive arguments fall back to the defaults.
func New(timeout time.Duration, maxRetries int, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		backoff:    time.Second,
		logger:     logger,
	}
}

// GetJSON fetches rawURL with the given query parameters and decodes
// the response body into out
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing url: %w", err)
	}
	if params != nil {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return c.do(ctx, http.MethodGet, u.String(), nil, out)
}

// PostJSON sends body as JSON to rawURL and decodes the response into out
func (c *Client) PostJSON(ctx context.Context, rawURL string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, rawURL, payload, out)
}

func (c *Client) do(ctx context.Context, method, fullURL string, payload []byte, out any) error {
	// ensure an overall deadline even when the caller passed a bare ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		total := c.httpClient.Timeout*time.Duration(c.maxRetries+1) + 8*c.backoff
		ctx, cancel = context.WithTimeout(ctx, total)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff * time.Duration(1<<uint(attempt-1))):
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("request failed",
				zap.String("method", method),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		if retryable(resp.StatusCode) {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = fmt.Errorf("upstream returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
			c.logger.Warn("retryable status",
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1))
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		}

		if out == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil
		}
		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// retryable reports whether a status code warrants another attempt
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
