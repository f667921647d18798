package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecrypt(t *testing.T) {
	secret := "binance-secret-key-value"

	encrypted, err := Encrypt(secret, testKey)
	require.NoError(t, err)
	assert.NotEqual(t, secret, encrypted)

	decrypted, err := Decrypt(encrypted, testKey)
	require.NoError(t, err)
	assert.Equal(t, secret, decrypted)
}

func TestEncryptProducesUniqueCiphertext(t *testing.T) {
	// Random nonce means the same plaintext must not encrypt to the same blob
	a, err := Encrypt("same input", testKey)
	require.NoError(t, err)
	b, err := Encrypt("same input", testKey)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptWrongKey(t *testing.T) {
	encrypted, err := Encrypt("payload", testKey)
	require.NoError(t, err)

	otherKey := strings.Repeat("x", 32)
	_, err = Decrypt(encrypted, otherKey)
	assert.Error(t, err)
}

func TestKeyLengthValidation(t *testing.T) {
	_, err := Encrypt("payload", "short-key")
	assert.Error(t, err)

	_, err = Decrypt("anything", "short-key")
	assert.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	_, err := Decrypt("not-base64!!!", testKey)
	assert.Error(t, err)

	// Valid base64 but too short to contain a nonce
	_, err = Decrypt("YWJj", testKey)
	assert.Error(t, err)
}
