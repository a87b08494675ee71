package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

// keySalt is fixed rather than per-key: Encryptor derives its AES key once
// at startup from an operator-supplied secret, not per-value, so there is
// no ciphertext-adjacent salt to store or rotate.
var keySalt = []byte("flowcraft-credential-store-v1")

// Encryptor provides authenticated at-rest encryption for Credential.Data.
// Wire format: base64(IV[12] || tag[16] || ciphertext) via AES-256-GCM.
// cipher.AEAD.Seal produces ciphertext||tag; Encrypt/Decrypt reorder across
// that boundary to match the documented tag-before-ciphertext layout.
type Encryptor struct {
	gcm cipher.AEAD
}

// NewEncryptor derives a 32-byte AES key from secret. A secret that is
// already 32 raw bytes (64 hex characters decode to that) is used directly;
// anything else is stretched via scrypt so short or low-entropy operator
// secrets still yield a full-strength key.
func NewEncryptor(secret string) (*Encryptor, error) {
	if secret == "" {
		return nil, errors.New("crypto: encryption key must not be empty")
	}

	key, err := deriveKey(secret)
	if err != nil {
		return nil, fmt.Errorf("crypto: derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: new gcm: %w", err)
	}

	return &Encryptor{gcm: gcm}, nil
}

func deriveKey(secret string) ([]byte, error) {
	if len(secret) == 64 {
		if raw, err := hex.DecodeString(secret); err == nil {
			return raw, nil
		}
	}
	if raw, err := base64.RawStdEncoding.DecodeString(secret); err == nil && len(raw) == 32 {
		return raw, nil
	}
	if len(secret) == 32 {
		return []byte(secret), nil
	}
	return scrypt.Key([]byte(secret), keySalt, 1<<15, 8, 1, 32)
}

// Encrypt serializes value to JSON if it is not already a string, then
// seals it. The result is safe to store as Credential.Data.
func (e *Encryptor) Encrypt(value interface{}) (string, error) {
	var plaintext []byte
	if s, ok := value.(string); ok {
		plaintext = []byte(s)
	} else {
		b, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("crypto: marshal plaintext: %w", err)
		}
		plaintext = b
	}

	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypto: read nonce: %w", err)
	}

	// Seal returns ciphertext||tag (Go's native AEAD layout); the wire
	// format is IV||tag||ciphertext, so split and reorder before encoding.
	sealed := e.gcm.Seal(nil, nonce, plaintext, nil)
	tagSize := e.gcm.Overhead()
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, len(nonce)+len(tag)+len(ciphertext))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ciphertext...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// open reverses the IV||tag||ciphertext wire format back into the
// ciphertext||tag order cipher.AEAD.Open expects.
func (e *Encryptor) open(token string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("crypto: decode token: %w", err)
	}

	nonceSize := e.gcm.NonceSize()
	tagSize := e.gcm.Overhead()
	if len(sealed) < nonceSize+tagSize {
		return nil, errors.New("crypto: token too short")
	}

	nonce := sealed[:nonceSize]
	tag := sealed[nonceSize : nonceSize+tagSize]
	ciphertext := sealed[nonceSize+tagSize:]

	combined := make([]byte, 0, len(ciphertext)+len(tag))
	combined = append(combined, ciphertext...)
	combined = append(combined, tag...)

	plaintext, err := e.gcm.Open(nil, nonce, combined, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: open: %w", err)
	}
	return plaintext, nil
}

// Decrypt opens a token produced by Encrypt. If asJSON is true the
// recovered plaintext is unmarshalled into an interface{} value (typically
// a map[string]interface{}); otherwise the raw string is returned.
func (e *Encryptor) Decrypt(token string, asJSON bool) (interface{}, error) {
	plaintext, err := e.open(token)
	if err != nil {
		return nil, err
	}

	if !asJSON {
		return string(plaintext), nil
	}

	var out interface{}
	if err := json.Unmarshal(plaintext, &out); err != nil {
		return nil, fmt.Errorf("crypto: unmarshal plaintext: %w", err)
	}
	return out, nil
}

// DecryptInto is a typed convenience wrapper over Decrypt for call sites
// that know the target credential shape (e.g. models.GmailOAuthData).
func (e *Encryptor) DecryptInto(token string, dest interface{}) error {
	plaintext, err := e.open(token)
	if err != nil {
		return err
	}
	return json.Unmarshal(plaintext, dest)
}

// GenerateToken returns a 32-byte random value, base64 URL-encoded, for use
// as an OAuth state parameter or similar one-shot nonce.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("crypto: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
