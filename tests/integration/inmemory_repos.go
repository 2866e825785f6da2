package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GiantDole/okayokayokay/internal/core/domain"

	"github.com/google/uuid"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet // keyed by session id
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[string]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[w.SessionID]; ok {
		return domain.ErrDuplicateSession
	}
	cp := *w
	r.wallets[w.SessionID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.ID == id {
			w.UpdatedAt = at
			return nil
		}
	}
	return fmt.Errorf("wallet not found: %s", id)
}

// --- In-Memory Resource Repo ---

type inMemoryResourceRepo struct {
	mu        sync.RWMutex
	resources map[uuid.UUID]*domain.Resource
}

func newInMemoryResourceRepo() *inMemoryResourceRepo {
	return &inMemoryResourceRepo{resources: make(map[uuid.UUID]*domain.Resource)}
}

func (r *inMemoryResourceRepo) add(res *domain.Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *res
	r.resources[res.ID] = &cp
}

func (r *inMemoryResourceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resources[id]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (r *inMemoryResourceRepo) ListActive(ctx context.Context) ([]domain.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Resource, 0, len(r.resources))
	for _, res := range r.resources {
		if res.IsActive {
			out = append(out, *res)
		}
	}
	return out, nil
}

// --- In-Memory Request Repo ---

type inMemoryRequestRepo struct {
	mu       sync.RWMutex
	requests []domain.ResourceRequest
}

func newInMemoryRequestRepo() *inMemoryRequestRepo {
	return &inMemoryRequestRepo{}
}

func (r *inMemoryRequestRepo) Create(ctx context.Context, req *domain.ResourceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, *req)
	return nil
}

func (r *inMemoryRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ResourceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.requests {
		if r.requests[i].ID == id {
			cp := r.requests[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryRequestRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.ResourceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ResourceRequest, 0, limit)
	// newest first
	for i := len(r.requests) - 1; i >= 0 && len(out) < limit; i-- {
		if r.requests[i].SessionID == sessionID {
			out = append(out, r.requests[i])
		}
	}
	return out, nil
}

func (r *inMemoryRequestRepo) ListByResource(ctx context.Context, resourceID uuid.UUID, limit int) ([]domain.ResourceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ResourceRequest, 0, limit)
	for i := len(r.requests) - 1; i >= 0 && len(out) < limit; i-- {
		if r.requests[i].ResourceID == resourceID {
			out = append(out, r.requests[i])
		}
	}
	return out, nil
}
