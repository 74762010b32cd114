// Package cogclient provides an HTTP range-request client for reading
// Cloud-Optimized GeoTIFFs remotely without downloading whole files.
package cogclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultBlockSize is the granularity of range fetches. Reads are rounded
// out to block boundaries and blocks are cached for the reader's lifetime,
// so the typical header-probe-then-tiles access pattern needs few requests.
const DefaultBlockSize = 64 * 1024

// Client is a reusable range-request client.
type Client struct {
	httpClient     *http.Client
	defaultHeaders http.Header
	retryPolicy    RetryPolicy
	logger         Logger
	blockSize      int
}

// New constructs a Client with the provided options.
func New(opts ...ClientOption) (*Client, error) {
	c := &Client{
		httpClient:     &http.Client{},
		defaultHeaders: make(http.Header),
		retryPolicy:    DefaultRetryPolicy,
		blockSize:      DefaultBlockSize,
	}
	c.defaultHeaders.Set("Accept", "*/*")
	c.defaultHeaders.Set("User-Agent", "go-cog/0.1")

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.httpClient == nil {
		return nil, ErrNilHTTPClient
	}
	return c, nil
}

// Open probes the size of the resource at rawURL and returns a block-cached
// RemoteReader over it.
func (c *Client) Open(ctx context.Context, rawURL string) (*RemoteReader, error) {
	if rawURL == "" {
		return nil, ErrInvalidURL
	}
	size, err := c.fetchSize(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return newRemoteReader(c, rawURL, size), nil
}

// fetchSize issues a HEAD request for Content-Length, falling back to a
// single-byte range GET for servers that answer HEAD without a length.
func (c *Client) fetchSize(ctx context.Context, rawURL string) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodHead, rawURL)
	if err != nil {
		return 0, err
	}

	resp, err := c.do(ctx, req)
	if err == nil {
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.ContentLength > 0 {
			return resp.ContentLength, nil
		}
	}

	// Range GET fallback: Content-Range carries the full size.
	req, err = c.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err = c.do(ctx, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	var total int64
	if _, err := fmt.Sscanf(resp.Header.Get("Content-Range"), "bytes 0-0/%d", &total); err != nil {
		return 0, fmt.Errorf("cogclient: cannot determine size of %s: %w", rawURL, err)
	}
	return total, nil
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range c.defaultHeaders {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.logger != nil {
		c.logger.Debugf("cogclient: %s %s range=%q", req.Method, req.URL, req.Header.Get("Range"))
	}

	resp, err := c.retry(ctx, func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if readErr != nil {
		return nil, readErr
	}

	apiErr := &APIError{Status: resp.StatusCode, Detail: string(data)}
	if c.logger != nil {
		c.logger.Errorf("cogclient: request failed status=%d url=%s", resp.StatusCode, req.URL)
	}
	return nil, apiErr
}

// fetchRange retrieves [start, start+length) of the resource.
func (c *Client) fetchRange(ctx context.Context, rawURL string, start, length int64) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, start+length-1))

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// A 200 means the server ignored the Range header; accepting it would
	// silently download the whole file on every block miss.
	if resp.StatusCode != http.StatusPartialContent && start != 0 {
		return nil, ErrRangeNotSupported
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, length))
	if err != nil {
		return nil, err
	}
	return data, nil
}
