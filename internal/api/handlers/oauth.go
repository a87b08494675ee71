package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/flowcraft-dev/flowcraft/internal/api/dto"
	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
	"github.com/flowcraft-dev/flowcraft/internal/domain/repositories"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/crypto"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/oauth"
)

const oauthStateTTL = 10 * time.Minute

// OAuthHandler drives the Gmail authorization-code flow used to connect a
// mailbox credential (spec.md §4.3.6, §6.2). Narrowed from the teacher's
// multi-provider login/signup Manager down to a single provider with no
// user/session concept: a successful callback just creates a new
// gmail-oauth Credential row.
type OAuthHandler struct {
	credentials  *repositories.CredentialRepository
	encryptor    *crypto.Encryptor
	gmail        *oauth.GmailClient
	clientID     string
	clientSecret string
	redirectURI  string

	mu     sync.Mutex
	states map[string]time.Time
}

func NewOAuthHandler(credentials *repositories.CredentialRepository, encryptor *crypto.Encryptor, gmail *oauth.GmailClient, clientID, clientSecret, redirectURI string) *OAuthHandler {
	return &OAuthHandler{
		credentials:  credentials,
		encryptor:    encryptor,
		gmail:        gmail,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		states:       make(map[string]time.Time),
	}
}

// Authorize redirects the caller to Google's consent screen.
func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	state, err := crypto.GenerateToken()
	if err != nil {
		dto.InternalServerError(w, "failed to generate oauth state")
		return
	}

	h.mu.Lock()
	h.states[state] = time.Now().Add(oauthStateTTL)
	h.pruneExpiredLocked()
	h.mu.Unlock()

	http.Redirect(w, r, h.gmail.AuthURL(h.clientID, h.redirectURI, state), http.StatusFound)
}

// Callback exchanges the authorization code and creates a new gmail-oauth
// credential; an existing credential is never updated. The connected
// mailbox's email isn't known here (the Gmail userinfo endpoint is out of
// scope), so the credential is named "gmail-" plus the UTC timestamp unless
// the caller supplies ?name=.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		dto.BadRequest(w, "missing state or code")
		return
	}

	if !h.consumeState(state) {
		dto.BadRequest(w, "invalid or expired state")
		return
	}

	accessToken, refreshToken, expiresAt, err := h.gmail.ExchangeCode(r.Context(), h.clientID, h.clientSecret, h.redirectURI, code)
	if err != nil {
		log.Error().Err(err).Msg("gmail code exchange failed")
		dto.InternalServerError(w, "failed to exchange authorization code")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "gmail-" + time.Now().UTC().Format("20060102150405")
	}

	data := models.GmailOAuthData{
		Tokens: models.GmailOAuthTokens{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    expiresAt,
		},
		ClientID:     h.clientID,
		ClientSecret: h.clientSecret,
	}

	ciphertext, err := h.encryptor.Encrypt(data)
	if err != nil {
		dto.InternalServerError(w, "failed to encrypt credential")
		return
	}

	cred := &models.Credential{
		Name: name,
		Type: models.CredentialTypeGmailOAuth,
		Data: ciphertext,
	}
	if err := h.credentials.Create(r.Context(), cred); err != nil {
		dto.InternalServerError(w, "failed to store credential")
		return
	}

	dto.JSON(w, http.StatusCreated, cred)
}

func (h *OAuthHandler) consumeState(state string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	expiresAt, ok := h.states[state]
	delete(h.states, state)
	return ok && time.Now().Before(expiresAt)
}

func (h *OAuthHandler) pruneExpiredLocked() {
	now := time.Now()
	for s, exp := range h.states {
		if now.After(exp) {
			delete(h.states, s)
		}
	}
}
