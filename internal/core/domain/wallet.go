package domain

import (
	"crypto/ecdsa"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateSession is returned by WalletRepository.Create when another
// wallet already owns the session id (UNIQUE(session_id) violation). Callers
// are expected to re-fetch the winning record instead of failing.
var ErrDuplicateSession = errors.New("wallet already exists for session")

// Wallet is a session-scoped custodial wallet. The private key is held only
// in encrypted form; the plaintext key never appears on this struct.
type Wallet struct {
	ID           uuid.UUID `json:"id"`
	SessionID    string    `json:"session_id"`
	Address      string    `json:"wallet_address"` // lowercased EVM address
	EncryptedKey string    `json:"-"`              // PBKDF2 + AES-256-GCM blob, never expose
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WalletWithKey pairs a stored wallet with its decrypted signing key.
// It exists only in memory for the duration of a signing call chain and
// must never be logged or persisted.
type WalletWithKey struct {
	Wallet
	PrivateKey *ecdsa.PrivateKey `json:"-"`
}

// NormalizeAddress canonicalizes an EVM address for equality comparisons.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
