package ports

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"github.com/GiantDole/okayokayokay/internal/core/domain"

	"github.com/ethereum/go-ethereum"
)

// KeyCipher handles authenticated encryption of wallet private keys under the
// process-wide passphrase. The passphrase is validated lazily at first use.
type KeyCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(blob string) (string, error)
}

// WalletService provisions and loads session wallets.
type WalletService interface {
	// GetOrCreate returns the session's wallet with its decrypted signing key,
	// creating it if necessary. Exactly one wallet per session is guaranteed
	// even under concurrent first requests.
	GetOrCreate(ctx context.Context, sessionID string) (*domain.WalletWithKey, error)
	// Get returns the stored wallet without touching the encrypted key.
	// Returns (nil, nil) when the session has no wallet yet.
	Get(ctx context.Context, sessionID string) (*domain.Wallet, error)
}

// NonceStore tracks payment authorization nonces so a nonce is never attached
// to two distinct attempts.
type NonceStore interface {
	// Register atomically records a nonce. Returns true if the nonce is new,
	// false if it was already used.
	Register(ctx context.Context, sessionID string, nonce string, ttl time.Duration) (bool, error)
}

// RequestOptions customizes the upstream request issued by the payment client.
type RequestOptions struct {
	Method string // defaults to GET
	Header http.Header
	Body   []byte
}

// PaymentResult is the outcome of one challenge-and-retry exchange. All
// failure causes (network error, malformed challenge, non-success final
// status) share this shape and are distinguished by the Error string.
type PaymentResult struct {
	Success        bool
	StatusCode     int
	Data           json.RawMessage
	PaymentDetails *domain.PaymentDetails
	Nonce          string // authorization nonce, set when a payment was attempted
	Error          string
}

// PaymentClient executes the x402 challenge/response protocol against a
// metered resource.
type PaymentClient interface {
	Execute(ctx context.Context, targetURL string, identity *domain.WalletWithKey, opts RequestOptions) *PaymentResult
}

// ProxyRequest holds validated input for a proxied resource access.
type ProxyRequest struct {
	ResourceID string
	Path       string
	Params     []domain.QueryParam
	SessionID  string
}

// ProxyResult is the success outcome of a proxied resource access.
type ProxyResult struct {
	Data           json.RawMessage
	PaymentDetails *domain.PaymentDetails
	WalletAddress  string
	RequestID      string
}

// ProxyService drives the full proxy flow: resolve resource, obtain wallet,
// execute the payment challenge client, and append the audit record.
type ProxyService interface {
	Proxy(ctx context.Context, req ProxyRequest) (*ProxyResult, error)
}

// WalletInfo is the read-only wallet summary returned to callers; the
// on-chain balance comes from the external balance-reader collaborator.
type WalletInfo struct {
	Address          string
	Balance          string // atomic units, decimal string
	BalanceFormatted string
	SessionID        string
	CreatedAt        time.Time
}

// BalanceService resolves a session wallet and reads its on-chain balance.
type BalanceService interface {
	GetWalletInfo(ctx context.Context, sessionID string) (*WalletInfo, error)
}

// ChainReader is the read-only chain access needed for balance queries.
// *ethclient.Client satisfies it.
type ChainReader interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}
