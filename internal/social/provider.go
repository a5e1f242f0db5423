package social

import (
	"errors"
	"fmt"
	"os"
)

// Errors the login handler maps onto HTTP responses.
var (
	ErrUnsupportedProvider = errors.New("Unsupported provider")
	ErrNoAccessToken       = errors.New("No access token provided")
	ErrEmailUnavailable    = errors.New("Email not available")
)

// UpstreamError wraps a failure talking to a social provider. StatusCode is
// the status the API should answer with: 400 for client-attributable
// failures (bad code, bad token), 500 for transport-level ones.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// ProviderConfig describes one social provider. Providers disagree on the
// authorization header prefix for the same bearer-token concept (GitHub
// wants "token", Google wants "Bearer"), and on which profile fields carry
// the email and username, so both are configuration rather than code.
type ProviderConfig struct {
	TokenURL      string // code-exchange endpoint; empty for implicit-flow providers
	UserInfoURL   string
	EmailsURL     string // secondary email lookup (GitHub only)
	ClientID      string
	ClientSecret  string
	AuthScheme    string
	EmailField    string
	UsernameField string
}

// DefaultProviders builds the provider registry from the environment.
func DefaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"google": {
			UserInfoURL:   "https://www.googleapis.com/oauth2/v3/userinfo",
			ClientID:      os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret:  os.Getenv("GOOGLE_CLIENT_SECRET"),
			AuthScheme:    "Bearer",
			EmailField:    "email",
			UsernameField: "sub",
		},
		"github": {
			TokenURL:      "https://github.com/login/oauth/access_token",
			UserInfoURL:   "https://api.github.com/user",
			EmailsURL:     "https://api.github.com/user/emails",
			ClientID:      os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret:  os.Getenv("GITHUB_CLIENT_SECRET"),
			AuthScheme:    "token",
			EmailField:    "email",
			UsernameField: "login",
		},
	}
}

func exchangeFailed(provider string, err error) *UpstreamError {
	return &UpstreamError{
		StatusCode: 500,
		Message:    fmt.Sprintf("%s token exchange failed: %v", provider, err),
	}
}
