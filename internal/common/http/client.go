package http

import (
	"context"
	"net/http"
	"time"
)

// Client is the shared outbound HTTP client. Callers own retries.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Wrap reuses an existing client, e.g. httptest.Server.Client().
func Wrap(c *http.Client) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{httpClient: c}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req.WithContext(ctx))
}

// Std exposes the underlying *http.Client.
func (c *Client) Std() *http.Client {
	return c.httpClient
}
