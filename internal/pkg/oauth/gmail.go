// Package oauth provides the narrow Gmail OAuth helper: the authorization URL
// and code exchange used by the API's OAuth handler, and the token refresh
// used by the email node's gmail-oauth credential path (spec.md §4.3.6,
// §4.4). Unlike the teacher's multi-provider login/signup Manager, it carries
// no state/session, user, or connection-record machinery.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const googleTokenEndpoint = "https://oauth2.googleapis.com/token"
const googleAuthEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"

// GmailClient exchanges authorization codes and refreshes access tokens
// against Google's OAuth token endpoint.
type GmailClient struct {
	HTTPClient *http.Client
	// TokenEndpoint overrides googleTokenEndpoint; only ever set by tests.
	TokenEndpoint string
}

func NewGmailClient() *GmailClient {
	return &GmailClient{HTTPClient: &http.Client{Timeout: 30 * time.Second}}
}

// RefreshedToken mirrors the fields the email node needs to persist back
// onto a credential's GmailOAuthTokens.
type RefreshedToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// AuthURL builds the Google consent screen URL for the gmail.send scope.
func (c *GmailClient) AuthURL(clientID, redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	q.Set("scope", "https://www.googleapis.com/auth/gmail.send")
	q.Set("state", state)
	return googleAuthEndpoint + "?" + q.Encode()
}

// ExchangeCode trades an authorization code for an access+refresh token pair.
func (c *GmailClient) ExchangeCode(ctx context.Context, clientID, clientSecret, redirectURI, code string) (string, string, time.Time, error) {
	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("redirect_uri", redirectURI)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")

	accessToken, refreshToken, expiresAt, err := c.doTokenRequest(ctx, form)
	return accessToken, refreshToken, expiresAt, err
}

// RefreshToken exchanges a stored refresh token for a fresh access token.
// Google usually does not rotate refresh tokens on this grant, but the
// response is honored when it does; callers fall back to the refresh token
// they already have otherwise.
func (c *GmailClient) RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*RefreshedToken, error) {
	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")

	accessToken, rotatedRefreshToken, expiresAt, err := c.doTokenRequest(ctx, form)
	if err != nil {
		return nil, err
	}
	if rotatedRefreshToken == "" {
		rotatedRefreshToken = refreshToken
	}
	return &RefreshedToken{AccessToken: accessToken, RefreshToken: rotatedRefreshToken, ExpiresAt: expiresAt}, nil
}

func (c *GmailClient) doTokenRequest(ctx context.Context, form url.Values) (accessToken, refreshToken string, expiresAt time.Time, err error) {
	endpoint := c.TokenEndpoint
	if endpoint == "" {
		endpoint = googleTokenEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", "", time.Time{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", time.Time{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", time.Time{}, fmt.Errorf("google token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		ExpiresIn    interface{} `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", time.Time{}, fmt.Errorf("malformed token response: %w", err)
	}

	ttl := 3600
	switch v := parsed.ExpiresIn.(type) {
	case float64:
		ttl = int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			ttl = n
		}
	}

	return parsed.AccessToken, parsed.RefreshToken, time.Now().Add(time.Duration(ttl) * time.Second), nil
}
