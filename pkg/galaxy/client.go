package galaxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides methods to interact with the Galaxy REST API.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *slog.Logger
}

// NewClient creates a new Galaxy API client with the given configuration.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.BaseURL == "" || config.APIKey == "" {
		return nil, ErrNotConfigured
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		logger:     logger.With("component", "galaxy-client"),
	}, nil
}

// BaseURL returns the configured instance URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// get issues a GET against an API path and unmarshals the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.config.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return c.call(ctx, http.MethodGet, reqURL, nil, out)
}

// post issues a POST with a JSON payload and unmarshals the JSON response.
func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	return c.call(ctx, http.MethodPost, c.config.BaseURL+path, body, out)
}

// call executes one API request with retry on transient failures.
func (c *Client) call(ctx context.Context, method, reqURL string, body []byte, out any) error {
	logger := c.logger.With("method", method, "url", reqURL)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			logger.Debug("retrying after delay", "attempt", attempt, "delay", delay)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		respBody, err := c.doRequest(ctx, method, reqURL, body)
		if err != nil {
			lastErr = err
			if !IsRetryable(err) {
				return err
			}
			logger.Debug("request failed, will retry", "error", err, "attempt", attempt)
			continue
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshaling response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("all retries exhausted: %w", lastErr)
}

// doRequest performs a single HTTP request and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, reqURL string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	req.Header.Set("x-api-key", c.config.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
