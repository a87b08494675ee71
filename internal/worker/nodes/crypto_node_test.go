package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

func TestCryptoNode_Hash(t *testing.T) {
	n := &CryptoNode{}
	res, err := n.Handle(context.Background(), &core.ExecutionContext{
		NodeID: "X",
		Data:   map[string]interface{}{"operation": "hash", "data": "hello", "algorithm": "sha256"},
	})
	require.NoError(t, err)
	out, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", out["hash"])
}

func TestCryptoNode_EncryptDecryptRoundTrip(t *testing.T) {
	n := &CryptoNode{}
	encRes, err := n.Handle(context.Background(), &core.ExecutionContext{
		NodeID: "X",
		Data:   map[string]interface{}{"operation": "encrypt", "data": "secret value", "key": "a-very-strong-shared-secret"},
	})
	require.NoError(t, err)
	enc, ok := encRes.(map[string]interface{})
	require.True(t, ok)

	decRes, err := n.Handle(context.Background(), &core.ExecutionContext{
		NodeID: "X",
		Data: map[string]interface{}{
			"operation":  "decrypt",
			"ciphertext": enc["ciphertext"],
			"key":        "a-very-strong-shared-secret",
		},
	})
	require.NoError(t, err)
	dec, ok := decRes.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "secret value", dec["plaintext"])
}

func TestCryptoNode_Base64RoundTrip(t *testing.T) {
	n := &CryptoNode{}
	encoded := n.base64Encode(map[string]interface{}{"data": "hello world"})
	decodedRes, err := n.Handle(context.Background(), &core.ExecutionContext{
		NodeID: "X",
		Data:   map[string]interface{}{"operation": "base64decode", "data": encoded["encoded"]},
	})
	require.NoError(t, err)
	decoded, ok := decodedRes.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hello world", decoded["decoded"])
}
