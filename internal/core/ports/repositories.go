package ports

import (
	"context"
	"time"

	"github.com/GiantDole/okayokayokay/internal/core/domain"

	"github.com/google/uuid"
)

// WalletRepository defines persistence operations for session wallets.
type WalletRepository interface {
	// Create inserts a new wallet. The store enforces UNIQUE(session_id);
	// a conflict is reported as domain.ErrDuplicateSession.
	Create(ctx context.Context, wallet *domain.Wallet) error
	// GetBySessionID fetches a wallet by session id. Returns (nil, nil) when absent.
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Wallet, error)
	// Touch refreshes updated_at on an existing wallet.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ResourceRepository reads the external x402 resource catalog.
type ResourceRepository interface {
	// GetByID fetches a catalog entry. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Resource, error)
	ListActive(ctx context.Context) ([]domain.Resource, error)
}

// RequestRepository is the append-only audit ledger of resource access
// attempts. Entries are never updated or deleted by this subsystem.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.ResourceRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ResourceRequest, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.ResourceRequest, error)
	ListByResource(ctx context.Context, resourceID uuid.UUID, limit int) ([]domain.ResourceRequest, error)
}
