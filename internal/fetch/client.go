// Package fetch retrieves and dissects source web pages: the HTTP client,
// article body extraction and page metadata (lead image, language) live
// here.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps how much of a response is read. News pages beyond this
// are almost certainly not articles.
const maxBodyBytes = 10 << 20

const defaultUserAgent = "Mozilla/5.0 (compatible; GoNewsBot/1.0; +https://github.com/jonesrussell/gonews)"

// Client is a bounded HTTP fetcher shared by the harvester and media
// download paths.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient creates a fetcher with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}
}

// WithUserAgent overrides the User-Agent header. Empty keeps the default.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// Get fetches url and returns at most 10MB of the body. Non-2xx statuses
// are errors.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
