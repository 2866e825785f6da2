package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyCipherSaltLen   = 64
	keyCipherNonceLen  = 12
	keyCipherTagLen    = 16
	keyCipherKeyLen    = 32
	keyCipherPBKDF2Its = 100_000
)

// PassphraseKeyCipher implements ports.KeyCipher using AES-256-GCM with a
// key derived from the configured passphrase via PBKDF2-SHA256. A fresh
// salt is generated per encryption, so the same plaintext never produces
// the same blob twice.
//
// Blob layout, base64-encoded: salt(64) || nonce(12) || tag(16) || ciphertext.
type PassphraseKeyCipher struct {
	passphrase string
}

// NewPassphraseKeyCipher creates a key cipher bound to the given passphrase.
// An empty passphrase is accepted here and rejected at first use, so a
// deployment without wallet features configured can still boot.
func NewPassphraseKeyCipher(passphrase string) *PassphraseKeyCipher {
	return &PassphraseKeyCipher{passphrase: passphrase}
}

func (c *PassphraseKeyCipher) deriveKey(salt []byte) ([]byte, error) {
	if c.passphrase == "" {
		return nil, fmt.Errorf("wallet passphrase is not configured")
	}
	return pbkdf2.Key([]byte(c.passphrase), salt, keyCipherPBKDF2Its, keyCipherKeyLen, sha256.New), nil
}

// Encrypt encrypts plaintext and returns the base64-encoded blob.
func (c *PassphraseKeyCipher) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, keyCipherSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key, err := c.deriveKey(salt)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, keyCipherNonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := aesGCM.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-keyCipherTagLen], sealed[len(sealed)-keyCipherTagLen:]

	blob := make([]byte, 0, keyCipherSaltLen+keyCipherNonceLen+keyCipherTagLen+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ciphertext...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt decrypts a blob produced by Encrypt. Any tampering with the
// blob, or a mismatched passphrase, fails authentication.
func (c *PassphraseKeyCipher) Decrypt(encoded string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding blob: %w", err)
	}
	if len(blob) < keyCipherSaltLen+keyCipherNonceLen+keyCipherTagLen {
		return "", fmt.Errorf("blob too short")
	}

	salt := blob[:keyCipherSaltLen]
	nonce := blob[keyCipherSaltLen : keyCipherSaltLen+keyCipherNonceLen]
	tag := blob[keyCipherSaltLen+keyCipherNonceLen : keyCipherSaltLen+keyCipherNonceLen+keyCipherTagLen]
	ciphertext := blob[keyCipherSaltLen+keyCipherNonceLen+keyCipherTagLen:]

	key, err := c.deriveKey(salt)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	sealed := make([]byte, 0, len(ciphertext)+keyCipherTagLen)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}

	return string(plaintext), nil
}
