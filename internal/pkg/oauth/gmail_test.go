package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGmailClient_AuthURL(t *testing.T) {
	c := NewGmailClient()
	u := c.AuthURL("client-id", "https://example.com/callback", "state-123")
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "state=state-123")
	assert.Contains(t, u, "gmail.send")
}

func TestGmailClient_RefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-token","expires_in":3600}`))
	}))
	defer srv.Close()

	c := NewGmailClient()
	c.TokenEndpoint = srv.URL

	refreshed, err := c.RefreshToken(context.Background(), "cid", "csecret", "rtoken")
	require.NoError(t, err)
	assert.Equal(t, "new-token", refreshed.AccessToken)
	assert.Equal(t, "rtoken", refreshed.RefreshToken)
	assert.False(t, refreshed.ExpiresAt.IsZero())
}

func TestGmailClient_RefreshToken_HonorsRotatedRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-token","refresh_token":"rotated-token","expires_in":3600}`))
	}))
	defer srv.Close()

	c := NewGmailClient()
	c.TokenEndpoint = srv.URL

	refreshed, err := c.RefreshToken(context.Background(), "cid", "csecret", "rtoken")
	require.NoError(t, err)
	assert.Equal(t, "rotated-token", refreshed.RefreshToken)
}

func TestGmailClient_ExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"a","refresh_token":"r","expires_in":"1800"}`))
	}))
	defer srv.Close()

	c := NewGmailClient()
	c.TokenEndpoint = srv.URL

	access, refresh, expiresAt, err := c.ExchangeCode(context.Background(), "cid", "csecret", "https://example.com/cb", "code-1")
	require.NoError(t, err)
	assert.Equal(t, "a", access)
	assert.Equal(t, "r", refresh)
	assert.False(t, expiresAt.IsZero())
}
