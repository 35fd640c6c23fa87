// Package transport provides a small HTTP GET client with automatic retry on
// transient failures (429 and 5xx responses, connection errors). It is the
// shared primitive underneath the discovery-side service clients.
package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/me/seqferry/internal/logging"
)

// Default client settings.
const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 5
	DefaultRetryDelay = 1 * time.Second
)

// Config holds retry and timeout settings for a Client.
type Config struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts for failed requests.
	MaxRetries int

	// RetryDelay is the initial delay between retries (exponential backoff
	// applied).
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with default settings.
func DefaultConfig() Config {
	return Config{
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// HTTPError represents a non-2xx HTTP response.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// IsRetryable reports whether the response status warrants a retry.
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client performs HTTP GETs with retry.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *slog.Logger
}

// NewClient creates a retrying HTTP client.
func NewClient(config Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		logger:     logger.With("component", "transport"),
	}
}

// Get issues a GET request against base with the given query parameters and
// returns the response body. Transient failures are retried with exponential
// backoff up to MaxRetries.
func (c *Client) Get(ctx context.Context, base string, params url.Values) ([]byte, error) {
	reqURL := base
	if len(params) > 0 {
		reqURL = base + "?" + params.Encode()
	}
	logger := c.logger.With("url", base)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			logger.Debug("retrying after delay", "attempt", attempt, "delay", delay)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.doGet(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		lastErr = err
		httpErr, ok := err.(*HTTPError)
		if ok && !httpErr.IsRetryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debug("request failed, will retry", "error", err, "attempt", attempt)
	}

	return nil, fmt.Errorf("all retries exhausted: %w", lastErr)
}

// doGet performs a single HTTP GET and reads the full response body.
func (c *Client) doGet(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
