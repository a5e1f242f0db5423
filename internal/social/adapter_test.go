package social

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func githubConfig(tokenURL, userInfoURL, emailsURL string) ProviderConfig {
	return ProviderConfig{
		TokenURL:      tokenURL,
		UserInfoURL:   userInfoURL,
		EmailsURL:     emailsURL,
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		AuthScheme:    "token",
		EmailField:    "email",
		UsernameField: "login",
	}
}

func TestResolveUnsupportedProvider(t *testing.T) {
	adapter := NewAdapter(map[string]ProviderConfig{})

	_, err := adapter.Resolve("myspace", "tok", "")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestResolveNoAccessToken(t *testing.T) {
	adapter := NewAdapter(map[string]ProviderConfig{
		"google": {UserInfoURL: "http://unused", AuthScheme: "Bearer", EmailField: "email", UsernameField: "sub"},
	})

	_, err := adapter.Resolve("google", "", "")
	assert.ErrorIs(t, err, ErrNoAccessToken)
}

func TestResolveCodeExchange(t *testing.T) {
	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token gh-access", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"login": "octocat", "email": "octo@example.com"}`))
	}))
	defer userinfo.Close()

	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "gh-access", "token_type": "bearer"}`))
	}))
	defer exchange.Close()

	adapter := NewAdapter(map[string]ProviderConfig{
		"github": githubConfig(exchange.URL, userinfo.URL, ""),
	})

	identity, err := adapter.Resolve("github", "", "the-code")
	require.NoError(t, err)
	assert.Equal(t, "octo@example.com", identity.Email)
	assert.Equal(t, "octocat", identity.Username)
}

func TestResolveExchangeMissingAccessToken(t *testing.T) {
	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error": "bad_verification_code"}`))
	}))
	defer exchange.Close()

	adapter := NewAdapter(map[string]ProviderConfig{
		"github": githubConfig(exchange.URL, "http://unused", ""),
	})

	_, err := adapter.Resolve("github", "", "stale-code")

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 400, upstream.StatusCode)
	// The upstream payload must be visible to the caller.
	assert.Contains(t, upstream.Message, "bad_verification_code")
}

func TestResolveInvalidAccessToken(t *testing.T) {
	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer userinfo.Close()

	adapter := NewAdapter(map[string]ProviderConfig{
		"github": githubConfig("", userinfo.URL, ""),
	})

	_, err := adapter.Resolve("github", "bad-token", "")

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 400, upstream.StatusCode)
	assert.Equal(t, "Invalid access token", upstream.Message)
}

func TestResolveEmailFallback(t *testing.T) {
	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"login": "octocat", "email": null}`))
	}))
	defer userinfo.Close()

	emails := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token gh-access", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"email": "secondary@example.com", "primary": false},
			{"email": "primary@example.com", "primary": true}
		]`))
	}))
	defer emails.Close()

	adapter := NewAdapter(map[string]ProviderConfig{
		"github": githubConfig("", userinfo.URL, emails.URL),
	})

	identity, err := adapter.Resolve("github", "gh-access", "")
	require.NoError(t, err)
	assert.Equal(t, "primary@example.com", identity.Email)
}

func TestResolveEmailUnavailable(t *testing.T) {
	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"login": "octocat"}`))
	}))
	defer userinfo.Close()

	emails := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer emails.Close()

	adapter := NewAdapter(map[string]ProviderConfig{
		"github": githubConfig("", userinfo.URL, emails.URL),
	})

	_, err := adapter.Resolve("github", "gh-access", "")
	assert.ErrorIs(t, err, ErrEmailUnavailable)
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email": "user@example.com", "sub": "123"}`))
	}))
	defer server.Close()

	adapter := NewAdapter(map[string]ProviderConfig{
		"google": {UserInfoURL: server.URL, AuthScheme: "Bearer", EmailField: "email", UsernameField: "sub"},
	})

	identity, err := adapter.Resolve("google", "tok", "")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", identity.Email)
	assert.Equal(t, "123", identity.Username)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	adapter := NewAdapter(map[string]ProviderConfig{
		"google": {UserInfoURL: server.URL, AuthScheme: "Bearer", EmailField: "email", UsernameField: "sub"},
	})

	_, err := adapter.Resolve("google", "tok", "")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := NewAdapter(map[string]ProviderConfig{
		"google": {UserInfoURL: server.URL, AuthScheme: "Bearer", EmailField: "email", UsernameField: "sub"},
	})

	_, err := adapter.Resolve("google", "tok", "")
	assert.Error(t, err)
	assert.Equal(t, int32(maxAttempts), calls.Load())
}
