package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GiantDole/okayokayokay/internal/core/domain"
	"github.com/GiantDole/okayokayokay/internal/core/ports"
	"github.com/GiantDole/okayokayokay/pkg/apperror"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService. It provisions one
// custodial EVM wallet per session and keeps the private key encrypted
// at rest; key material only exists in plaintext inside a request.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	cipher     ports.KeyCipher
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	cipher ports.KeyCipher,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		cipher:     cipher,
		log:        log,
	}
}

// GetOrCreate returns the wallet bound to sessionID, generating and
// persisting one on first use. Concurrent first calls for the same
// session all resolve to the single stored wallet.
func (s *WalletServiceImpl) GetOrCreate(ctx context.Context, sessionID string) (*domain.WalletWithKey, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperror.ErrMissingFields("sessionId")
	}

	existing, err := s.walletRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lookup wallet: %w", err))
	}
	if existing != nil {
		return s.unseal(ctx, existing)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, apperror.ErrWalletProvisioning(fmt.Errorf("generate key: %w", err))
	}

	keyHex := hex.EncodeToString(crypto.FromECDSA(key))
	encrypted, err := s.cipher.Encrypt(keyHex)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt key: %w", err))
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:           uuid.New(),
		SessionID:    sessionID,
		Address:      domain.NormalizeAddress(crypto.PubkeyToAddress(key.PublicKey).Hex()),
		EncryptedKey: encrypted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		if errors.Is(err, domain.ErrDuplicateSession) {
			// Another request won the provisioning race. Use its wallet.
			winner, ferr := s.walletRepo.GetBySessionID(ctx, sessionID)
			if ferr != nil {
				return nil, apperror.ErrDatabaseError(fmt.Errorf("refetch wallet after conflict: %w", ferr))
			}
			if winner == nil {
				return nil, apperror.ErrWalletProvisioning(fmt.Errorf("wallet conflict for session but no row found"))
			}
			return s.unseal(ctx, winner)
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("session_id", sessionID).
		Str("address", wallet.Address).
		Msg("provisioned session wallet")

	return &domain.WalletWithKey{Wallet: *wallet, PrivateKey: key}, nil
}

// Get returns the stored wallet for sessionID without decrypting its
// key, or nil when none exists.
func (s *WalletServiceImpl) Get(ctx context.Context, sessionID string) (*domain.Wallet, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperror.ErrMissingFields("sessionId")
	}

	wallet, err := s.walletRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lookup wallet: %w", err))
	}
	return wallet, nil
}

// unseal decrypts a stored wallet's key material and verifies it still
// derives the recorded address.
func (s *WalletServiceImpl) unseal(ctx context.Context, wallet *domain.Wallet) (*domain.WalletWithKey, error) {
	keyHex, err := s.cipher.Decrypt(wallet.EncryptedKey)
	if err != nil {
		return nil, apperror.ErrWalletDecryption(fmt.Errorf("decrypt key for session %s: %w", wallet.SessionID, err))
	}

	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, apperror.ErrWalletDecryption(fmt.Errorf("parse key for session %s: %w", wallet.SessionID, err))
	}

	derived := domain.NormalizeAddress(crypto.PubkeyToAddress(key.PublicKey).Hex())
	if derived != wallet.Address {
		return nil, apperror.ErrWalletDecryption(fmt.Errorf("key material does not match stored address for session %s", wallet.SessionID))
	}

	if err := s.walletRepo.Touch(ctx, wallet.ID, time.Now().UTC()); err != nil {
		s.log.Warn().Err(err).Str("wallet_id", wallet.ID.String()).Msg("failed to touch wallet")
	}

	return &domain.WalletWithKey{Wallet: *wallet, PrivateKey: key}, nil
}
