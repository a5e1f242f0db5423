package social

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	requestTimeout = 10 * time.Second
	maxAttempts    = 3
	baseBackoff    = 300 * time.Millisecond
)

// Identity is the normalized result of a social login: the federation key
// and a display name to seed new accounts with.
type Identity struct {
	Email    string
	Username string
}

type Adapter struct {
	providers map[string]ProviderConfig
	client    *http.Client
}

func NewAdapter(providers map[string]ProviderConfig) *Adapter {
	return &Adapter{
		providers: providers,
		client:    &http.Client{Timeout: requestTimeout},
	}
}

// Resolve turns a provider name plus either a caller-supplied access token
// (implicit flow) or an authorization code (code flow) into a normalized
// identity. No state is kept between calls.
func (a *Adapter) Resolve(provider string, token string, code string) (Identity, error) {
	conf, ok := a.providers[provider]

	if !ok {
		return Identity{}, ErrUnsupportedProvider
	}

	accessToken := token

	if code != "" && conf.TokenURL != "" {
		exchanged, err := a.exchangeCode(provider, conf, code)

		if err != nil {
			return Identity{}, err
		}

		accessToken = exchanged
	}

	if accessToken == "" {
		return Identity{}, ErrNoAccessToken
	}

	profile, err := a.fetchProfile(conf, accessToken)

	if err != nil {
		return Identity{}, err
	}

	email, _ := profile[conf.EmailField].(string)

	if email == "" && conf.EmailsURL != "" {
		email, err = a.fetchPrimaryEmail(conf, accessToken)

		if err != nil {
			return Identity{}, err
		}
	}

	if email == "" {
		return Identity{}, ErrEmailUnavailable
	}

	var username string

	if value, exists := profile[conf.UsernameField]; exists && value != nil {
		username = fmt.Sprint(value)
	}

	return Identity{Email: email, Username: username}, nil
}

// exchangeCode swaps an authorization code for an access token. A response
// without an access_token field surfaces the upstream payload so the caller
// can see what the provider actually said.
func (a *Adapter) exchangeCode(provider string, conf ProviderConfig, code string) (string, error) {
	form := url.Values{
		"client_id":     {conf.ClientID},
		"client_secret": {conf.ClientSecret},
		"code":          {code},
	}

	req, err := http.NewRequest(http.MethodPost, conf.TokenURL, strings.NewReader(form.Encode()))

	if err != nil {
		return "", exchangeFailed(provider, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.do(req)

	if err != nil {
		return "", exchangeFailed(provider, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if err != nil {
		return "", exchangeFailed(provider, err)
	}

	var tokenData map[string]interface{}

	if err := json.Unmarshal(body, &tokenData); err != nil {
		return "", exchangeFailed(provider, err)
	}

	accessToken, _ := tokenData["access_token"].(string)

	if accessToken == "" {
		return "", &UpstreamError{
			StatusCode: 400,
			Message:    fmt.Sprintf("Failed to get access token: %s", strings.TrimSpace(string(body))),
		}
	}

	return accessToken, nil
}

func (a *Adapter) fetchProfile(conf ProviderConfig, accessToken string) (map[string]interface{}, error) {
	resp, err := a.get(conf.UserInfoURL, conf.AuthScheme, accessToken)

	if err != nil {
		return nil, &UpstreamError{StatusCode: 500, Message: fmt.Sprintf("Failed to fetch user info: %v", err)}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: 400, Message: "Invalid access token"}
	}

	var profile map[string]interface{}

	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, &UpstreamError{StatusCode: 500, Message: fmt.Sprintf("Failed to fetch user info: %v", err)}
	}

	return profile, nil
}

// fetchPrimaryEmail hits the provider's emails endpoint and selects the
// entry flagged primary.
func (a *Adapter) fetchPrimaryEmail(conf ProviderConfig, accessToken string) (string, error) {
	resp, err := a.get(conf.EmailsURL, conf.AuthScheme, accessToken)

	if err != nil {
		return "", &UpstreamError{StatusCode: 500, Message: fmt.Sprintf("Failed to fetch email: %v", err)}
	}

	defer resp.Body.Close()

	var emails []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", &UpstreamError{StatusCode: 500, Message: fmt.Sprintf("Failed to fetch email: %v", err)}
	}

	for _, entry := range emails {
		if entry.Primary {
			return entry.Email, nil
		}
	}

	return "", nil
}

func (a *Adapter) get(rawURL string, scheme string, accessToken string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)

	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", scheme+" "+accessToken)
	req.Header.Set("Accept", "application/json")

	return a.do(req)
}

// do sends the request, retrying 5xx responses with exponential backoff.
// 4xx responses and transport errors are returned without retrying.
func (a *Adapter) do(req *http.Request) (*http.Response, error) {
	backoff := baseBackoff

	for attempt := 1; ; attempt++ {
		resp, err := a.client.Do(req)

		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 500 || attempt == maxAttempts {
			return resp, nil
		}

		resp.Body.Close()
		time.Sleep(backoff)
		backoff *= 2

		if req.GetBody != nil {
			body, err := req.GetBody()

			if err != nil {
				return nil, err
			}

			req.Body = body
		}
	}
}
