// Package galaxy provides a Go client for the Galaxy analysis platform's
// REST API: histories, workflow lookup and introspection, URL fetches into
// histories, paired collections, and workflow invocation.
package galaxy

import "time"

// Default client settings.
const (
	DefaultTimeout    = 120 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
)

// Config holds all configuration for the Galaxy API client.
type Config struct {
	// BaseURL is the Galaxy instance URL, e.g. https://usegalaxy.org.
	BaseURL string

	// APIKey is the Galaxy user API key.
	APIKey string

	// Timeout is the HTTP client timeout for each request.
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts for failed requests.
	MaxRetries int

	// RetryDelay is the initial delay between retries (exponential backoff
	// applied).
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with default client settings. BaseURL and
// APIKey have no defaults and must be supplied.
func DefaultConfig() Config {
	return Config{
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// WithAPIKey returns a copy of the config with the specified API key.
func (c Config) WithAPIKey(key string) Config {
	c.APIKey = key
	return c
}

// WithBaseURL returns a copy of the config with the specified base URL.
func (c Config) WithBaseURL(baseURL string) Config {
	c.BaseURL = baseURL
	return c
}

// WithRetries returns a copy of the config with the specified retry settings.
func (c Config) WithRetries(maxRetries int, retryDelay time.Duration) Config {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
	return c
}
