package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var ErrNoRefreshToken = errors.New("no refresh token configured")

// TokenSource supplies bearer tokens for the recruiting platform API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// TokenResponse holds the response from the token refresh endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// RefreshingTokenSource caches an access token and exchanges the refresh token
// at {baseURL}/token/refresh when the platform rejects it or it expires.
type RefreshingTokenSource struct {
	mu           sync.Mutex
	baseURL      string
	httpClient   *http.Client
	clock        clockwork.Clock
	accessToken  string
	refreshToken string
	tokenExpiry  time.Time
}

// NewRefreshingTokenSource creates a token source seeded with static credentials.
// A zero expiry means the seeded access token is used until the first 401.
func NewRefreshingTokenSource(baseURL, accessToken, refreshToken string, httpClient *http.Client, clock clockwork.Clock) *RefreshingTokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RefreshingTokenSource{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   httpClient,
		clock:        clock,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// Token returns the cached token, refreshing it first when it has expired.
func (s *RefreshingTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	expired := !s.tokenExpiry.IsZero() && !s.tokenExpiry.After(s.clock.Now())
	token := s.accessToken
	s.mu.Unlock()

	if token != "" && !expired {
		return token, nil
	}
	if s.refreshToken == "" {
		return token, nil
	}
	return s.Refresh(ctx)
}

// Refresh exchanges the refresh token for a new access token.
func (s *RefreshingTokenSource) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	body, err := json.Marshal(map[string]string{"refresh_token": s.refreshToken})
	if err != nil {
		return "", fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/token/refresh", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token refresh failed with status %d: %s", resp.StatusCode, string(b))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", errors.New("token refresh returned empty access token")
	}

	s.accessToken = tokenResp.AccessToken
	if tokenResp.RefreshToken != "" {
		s.refreshToken = tokenResp.RefreshToken
	}
	if tokenResp.ExpiresIn > 0 {
		s.tokenExpiry = s.clock.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	} else {
		s.tokenExpiry = time.Time{}
	}
	return s.accessToken, nil
}

// StaticTokenSource never refreshes.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) { return string(s), nil }

func (s StaticTokenSource) Refresh(context.Context) (string, error) { return "", ErrNoRefreshToken }
