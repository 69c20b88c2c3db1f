// Package huntflow is the authenticated, paginated accessor for the recruiting platform API.
package huntflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"hr-analytics/internal/common/auth"
	"hr-analytics/internal/common/config"
	"hr-analytics/internal/common/database"
	commonhttp "hr-analytics/internal/common/http"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/common/metrics"
)

const maxErrorBody = 4096

// RateLimitPolicy bounds how long and how often 429 responses are waited out.
type RateLimitPolicy struct {
	DefaultRetryAfter time.Duration
	MaxWait           time.Duration
	MaxAttempts       int
}

// Client talks to one recruiting platform account.
type Client struct {
	baseURL    string
	accountID  int
	httpClient *commonhttp.Client
	tokens     auth.TokenSource
	clock      clockwork.Clock
	pageSize   int
	maxPages   int
	rateLimit  RateLimitPolicy
	cache      *database.RedisClient
	cacheTTL   time.Duration
	logger     logger.Logger
}

type Option func(*Client)

// WithClock replaces the clock used for rate-limit sleeps.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithHTTPClient replaces the outbound HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = commonhttp.Wrap(hc) }
}

// WithTokenSource replaces the token source built from config.
func WithTokenSource(ts auth.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithSnapshotCache stores FetchAll results in Redis for ttl.
func WithSnapshotCache(cache *database.RedisClient, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.HuntflowConfig, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		accountID:  cfg.AccountID,
		httpClient: commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		clock:      clockwork.NewRealClock(),
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		rateLimit: RateLimitPolicy{
			DefaultRetryAfter: config.GetDuration(cfg.RateLimit.DefaultRetryAfter),
			MaxWait:           config.GetDuration(cfg.RateLimit.MaxWait),
			MaxAttempts:       cfg.RateLimit.MaxAttempts,
		},
		logger: log.WithFields(map[string]interface{}{"component": "huntflow"}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.pageSize <= 0 {
		c.pageSize = 100
	}
	if c.maxPages <= 0 {
		c.maxPages = 500
	}
	if c.rateLimit.MaxAttempts <= 0 {
		c.rateLimit.MaxAttempts = 3
	}
	if c.rateLimit.DefaultRetryAfter <= 0 {
		c.rateLimit.DefaultRetryAfter = time.Second
	}
	if c.rateLimit.MaxWait <= 0 {
		c.rateLimit.MaxWait = time.Minute
	}
	if c.tokens == nil {
		c.tokens = auth.NewRefreshingTokenSource(c.baseURL, cfg.AccessToken, cfg.RefreshToken, c.httpClient.Std(), c.clock)
	}
	return c
}

// AccountPath scopes suffix to the configured account.
func (c *Client) AccountPath(suffix string) string {
	return fmt.Sprintf("/accounts/%d%s", c.accountID, suffix)
}

// Fetch performs one request and decodes the JSON body. A top-level array is
// returned under "items".
func (c *Client) Fetch(ctx context.Context, method, path string, params url.Values) (map[string]interface{}, error) {
	refreshed := false
	rateLimited := 0

	for {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, &AuthError{Err: err}
		}

		status, header, body, err := c.do(ctx, method, path, params, token)
		if err != nil {
			return nil, err
		}

		switch {
		case status >= 200 && status < 300:
			return decodeDocument(body)

		case status == http.StatusUnauthorized:
			if refreshed {
				return nil, &AuthError{Status: status, Body: truncate(body)}
			}
			refreshed = true
			if _, err := c.tokens.Refresh(ctx); err != nil {
				metrics.RemoteTokenRefreshes.WithLabelValues("failed").Inc()
				return nil, &AuthError{Status: status, Body: truncate(body), Err: err}
			}
			metrics.RemoteTokenRefreshes.WithLabelValues("ok").Inc()
			c.logger.Info("Token refreshed after 401", map[string]interface{}{"path": path})

		case status == http.StatusTooManyRequests:
			rateLimited++
			wait := c.retryAfter(header.Get("Retry-After"))
			if rateLimited >= c.rateLimit.MaxAttempts {
				return nil, &RateLimitExceeded{Attempts: rateLimited, RetryAfter: wait}
			}
			metrics.RemoteRateLimitWaits.Inc()
			c.logger.Warn("Rate limited, waiting", map[string]interface{}{
				"path":    path,
				"wait":    wait.String(),
				"attempt": rateLimited,
			})
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}

		default:
			return nil, &RemoteError{Status: status, Body: truncate(body)}
		}
	}
}

// FetchAll follows the count/page protocol and returns every record under "items".
func (c *Client) FetchAll(ctx context.Context, path string, params url.Values) ([]map[string]interface{}, error) {
	cacheKey := c.cacheKey(path, params)
	if c.cache != nil && c.cacheTTL > 0 {
		var cached []map[string]interface{}
		if err := c.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, database.ErrCacheMiss) {
			c.logger.Warn("Snapshot cache read failed", map[string]interface{}{"key": cacheKey, "error": err.Error()})
		}
	}

	records := make([]map[string]interface{}, 0)
	for page := 1; ; page++ {
		if page > c.maxPages {
			c.logger.Warn("Page ceiling reached, stopping pagination", map[string]interface{}{
				"path":     path,
				"maxPages": c.maxPages,
			})
			break
		}

		q := cloneValues(params)
		q.Set("count", strconv.Itoa(c.pageSize))
		q.Set("page", strconv.Itoa(page))

		doc, err := c.Fetch(ctx, http.MethodGet, path, q)
		if err != nil {
			return nil, err
		}

		items, _ := doc["items"].([]interface{})
		for _, item := range items {
			if m, ok := item.(map[string]interface{}); ok {
				records = append(records, m)
			}
		}

		if len(items) < c.pageSize {
			break
		}
		if total, ok := doc["total_pages"].(float64); ok && float64(page) >= total {
			break
		}
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.SetJSON(ctx, cacheKey, records, c.cacheTTL); err != nil {
			c.logger.Warn("Snapshot cache write failed", map[string]interface{}{"key": cacheKey, "error": err.Error()})
		}
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, token string) (int, http.Header, []byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RemoteRequests.WithLabelValues("error").Inc()
		return 0, nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	metrics.RemoteRequests.WithLabelValues(metrics.StatusClass(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read response %s %s: %w", method, path, err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

// retryAfter parses delta-seconds or an HTTP-date, falling back to the
// default and capping at MaxWait.
func (c *Client) retryAfter(value string) time.Duration {
	wait := c.rateLimit.DefaultRetryAfter
	value = strings.TrimSpace(value)
	if value != "" {
		if secs, err := strconv.ParseFloat(value, 64); err == nil && secs >= 0 {
			wait = time.Duration(secs * float64(time.Second))
		} else if at, err := http.ParseTime(value); err == nil {
			wait = at.Sub(c.clock.Now())
			if wait < 0 {
				wait = 0
			}
		}
	}
	if wait > c.rateLimit.MaxWait {
		wait = c.rateLimit.MaxWait
	}
	return wait
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

func (c *Client) cacheKey(path string, params url.Values) string {
	return fmt.Sprintf("huntflow:%d:%s?%s", c.accountID, path, params.Encode())
}

func decodeDocument(body []byte) (map[string]interface{}, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return map[string]interface{}{}, nil
	}
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	switch v := raw.(type) {
	case map[string]interface{}:
		return v, nil
	case []interface{}:
		return map[string]interface{}{"items": v}, nil
	default:
		return nil, fmt.Errorf("unexpected response document of type %T", raw)
	}
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}
