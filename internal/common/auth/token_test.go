package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshingTokenSource_Refresh(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/token/refresh", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body["refresh_token"])

		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 60})
	}))
	defer server.Close()

	clock := clockwork.NewFakeClock()
	src := NewRefreshingTokenSource(server.URL, "access-1", "refresh-1", server.Client(), clock)

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok)

	tok, err = src.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok)

	tok, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRefreshingTokenSource_ExpiredTokenRefreshes(t *testing.T) {
	var issued int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&issued, 1)
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok-" + string(rune('0'+n)), ExpiresIn: 10})
	}))
	defer server.Close()

	clock := clockwork.NewFakeClock()
	src := NewRefreshingTokenSource(server.URL, "", "refresh", server.Client(), clock)

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	clock.Advance(11 * time.Second)
	tok, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
}

func TestRefreshingTokenSource_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	src := NewRefreshingTokenSource(server.URL, "a", "r", server.Client(), clockwork.NewFakeClock())
	_, err := src.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	noRefresh := NewRefreshingTokenSource(server.URL, "a", "", server.Client(), nil)
	_, err = noRefresh.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoRefreshToken)

	_, err = StaticTokenSource("x").Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}
