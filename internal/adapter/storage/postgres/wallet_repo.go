package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GiantDole/okayokayokay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new session wallet. The session_wallets table carries
// UNIQUE(session_id); a conflict surfaces as domain.ErrDuplicateSession so
// the caller can adopt the winning row.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO session_wallets (id, session_id, wallet_address, encrypted_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.SessionID, w.Address, w.EncryptedKey,
		w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateSession
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetBySessionID fetches the wallet bound to a session.
func (r *WalletRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.Wallet, error) {
	query := `SELECT id, session_id, wallet_address, encrypted_key, created_at, updated_at
		FROM session_wallets WHERE session_id = $1`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&w.ID, &w.SessionID, &w.Address, &w.EncryptedKey,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by session id: %w", err)
	}
	return w, nil
}

// Touch refreshes a wallet's updated_at timestamp.
func (r *WalletRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE session_wallets SET updated_at = $1 WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("touch wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}
