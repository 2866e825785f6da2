package service

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassphrase = "test-wallet-passphrase"

func TestPassphraseKeyCipher_EncryptDecrypt(t *testing.T) {
	cipher := NewPassphraseKeyCipher(testPassphrase)

	plaintext := "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	blob, err := cipher.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, blob)

	decrypted, err := cipher.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestPassphraseKeyCipher_FreshSaltPerEncryption(t *testing.T) {
	cipher := NewPassphraseKeyCipher(testPassphrase)

	plaintext := "same_key_material"
	b1, err := cipher.Encrypt(plaintext)
	require.NoError(t, err)
	b2, err := cipher.Encrypt(plaintext)
	require.NoError(t, err)

	assert.NotEqual(t, b1, b2, "same plaintext should produce different blobs due to random salt and nonce")

	d1, _ := cipher.Decrypt(b1)
	d2, _ := cipher.Decrypt(b2)
	assert.Equal(t, d1, d2)
}

func TestPassphraseKeyCipher_TamperAnyByte(t *testing.T) {
	cipher := NewPassphraseKeyCipher(testPassphrase)

	blob, err := cipher.Encrypt("secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	for i := range raw {
		tampered := make([]byte, len(raw))
		copy(tampered, raw)
		tampered[i] ^= 0xff

		_, err := cipher.Decrypt(base64.StdEncoding.EncodeToString(tampered))
		assert.Error(t, err, "flipping byte %d should fail authentication", i)
	}
}

func TestPassphraseKeyCipher_WrongPassphrase(t *testing.T) {
	c1 := NewPassphraseKeyCipher(testPassphrase)
	c2 := NewPassphraseKeyCipher("a-different-passphrase")

	blob, err := c1.Encrypt("key_material")
	require.NoError(t, err)

	_, err = c2.Decrypt(blob)
	assert.Error(t, err)
}

func TestPassphraseKeyCipher_MissingPassphrase(t *testing.T) {
	cipher := NewPassphraseKeyCipher("")

	_, err := cipher.Encrypt("anything")
	assert.ErrorContains(t, err, "passphrase")

	configured := NewPassphraseKeyCipher(testPassphrase)
	blob, err := configured.Encrypt("anything")
	require.NoError(t, err)

	_, err = cipher.Decrypt(blob)
	assert.ErrorContains(t, err, "passphrase")
}

func TestPassphraseKeyCipher_InvalidBlob(t *testing.T) {
	cipher := NewPassphraseKeyCipher(testPassphrase)

	_, err := cipher.Decrypt("not-base64-at-all!!!")
	assert.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("abc"))
	_, err = cipher.Decrypt(short)
	assert.ErrorContains(t, err, "too short")
}
