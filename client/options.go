package cogclient

import (
	"net/http"
	"time"
)

// Logger represents the minimal logging interface used by the client.
// zap's SugaredLogger satisfies it directly.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ClientOption configures a Client during construction.
type ClientOption func(*Client) error

// WithHTTPClient injects a custom http.Client, e.g. one wrapping an auth
// transport.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		if httpClient == nil {
			return ErrNilHTTPClient
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithTimeout sets a per-request timeout on the underlying http.Client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout <= 0 {
			return nil
		}
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
		return nil
	}
}

// WithDefaultHeader registers a header applied to every request.
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) error {
		if key == "" {
			return nil
		}
		if c.defaultHeaders == nil {
			c.defaultHeaders = make(http.Header)
		}
		c.defaultHeaders.Add(key, value)
		return nil
	}
}

// WithRetryPolicy configures the retry behavior for range requests.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) error {
		c.retryPolicy = policy
		return nil
	}
}

// WithLogger registers a logger used for request lifecycle events.
func WithLogger(logger Logger) ClientOption {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithBlockSize sets the fetch granularity in bytes.
func WithBlockSize(size int) ClientOption {
	return func(c *Client) error {
		if size <= 0 {
			return ErrInvalidBlockSize
		}
		c.blockSize = size
		return nil
	}
}
