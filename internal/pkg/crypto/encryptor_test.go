package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptor_RoundTripString(t *testing.T) {
	enc, err := NewEncryptor("a-test-secret-that-is-not-32-bytes")
	require.NoError(t, err)

	token, err := enc.Encrypt("hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotContains(t, token, "hunter2")

	out, err := enc.Decrypt(token, false)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", out)
}

func TestEncryptor_RoundTripJSON(t *testing.T) {
	enc, err := NewEncryptor("another-secret")
	require.NoError(t, err)

	data := map[string]interface{}{"apiKey": "sk-123", "organization": "acme"}
	token, err := enc.Encrypt(data)
	require.NoError(t, err)

	out, err := enc.Decrypt(token, true)
	require.NoError(t, err)
	m, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "sk-123", m["apiKey"])
}

func TestEncryptor_DecryptInto(t *testing.T) {
	enc, err := NewEncryptor("yet-another-secret")
	require.NoError(t, err)

	token, err := enc.Encrypt(map[string]interface{}{"accessToken": "abc"})
	require.NoError(t, err)

	var dest struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, enc.DecryptInto(token, &dest))
	assert.Equal(t, "abc", dest.AccessToken)
}

func TestEncryptor_TamperedTokenFails(t *testing.T) {
	enc, err := NewEncryptor("tamper-secret")
	require.NoError(t, err)

	token, err := enc.Encrypt("secret value")
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "abcd"
	_, err = enc.Decrypt(tampered, false)
	assert.Error(t, err)
}

func TestEncryptor_DifferentKeysProduceDifferentCiphertext(t *testing.T) {
	enc1, err := NewEncryptor("secret-one")
	require.NoError(t, err)
	enc2, err := NewEncryptor("secret-two")
	require.NoError(t, err)

	token, err := enc1.Encrypt("same plaintext")
	require.NoError(t, err)

	_, err = enc2.Decrypt(token, false)
	assert.Error(t, err)
}

func TestNewEncryptor_RejectsEmptySecret(t *testing.T) {
	_, err := NewEncryptor("")
	assert.Error(t, err)
}

func TestGenerateToken_Unique(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}
