package models

import (
	"time"

	"github.com/google/uuid"
)

// Credential stores a secret blob encrypted at rest (spec.md §6). Data is
// the ciphertext produced by the Encryptor; the plaintext shape depends on
// Type and is never stored or logged unencrypted.
type Credential struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Type      string    `gorm:"size:50;not null;index" json:"type"`
	Data      string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Credential) TableName() string {
	return "credentials"
}

// GmailOAuthTokens is the live token pair inside a gmail-oauth credential.
type GmailOAuthTokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// GmailOAuthData is the decrypted plaintext of a CredentialTypeGmailOAuth
// credential (spec.md §6.2) — a connected mailbox plus the client
// registration needed to refresh it.
type GmailOAuthData struct {
	Email        string           `json:"email"`
	Tokens       GmailOAuthTokens `json:"tokens"`
	ClientID     string           `json:"clientId"`
	ClientSecret string           `json:"clientSecret"`
}

// GmailOAuthConfigData is the decrypted plaintext of a
// CredentialTypeGmailOAuthConfig credential — the app-level OAuth client
// registration used to start the authorization-code flow, independent of
// any particular connected mailbox.
type GmailOAuthConfigData struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectUri,omitempty"`
}

// OpenAICredentialData is the decrypted plaintext of a
// CredentialTypeOpenAI credential.
type OpenAICredentialData struct {
	APIKey       string `json:"apiKey"`
	Organization string `json:"organization,omitempty"`
	BaseURL      string `json:"baseUrl,omitempty"`
}

// PostgresCredentialData is the decrypted plaintext of a
// CredentialTypePostgres credential.
type PostgresCredentialData struct {
	ConnectionString string `json:"connectionString"`
}
