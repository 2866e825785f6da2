package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/GiantDole/okayokayokay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ResourceRepo implements ports.ResourceRepository against the shared
// x402_resources catalog table. This subsystem never writes the catalog.
type ResourceRepo struct {
	pool Pool
}

// NewResourceRepo creates a new ResourceRepo.
func NewResourceRepo(pool Pool) *ResourceRepo {
	return &ResourceRepo{pool: pool}
}

const resourceColumns = `id, name, description, base_url, well_known_url, payment_address, price_per_request, is_active, created_at, updated_at`

// GetByID fetches a catalog entry by its UUID.
func (r *ResourceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM x402_resources WHERE id = $1`

	res := &domain.Resource{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&res.ID, &res.Name, &res.Description, &res.BaseURL,
		&res.WellKnownURL, &res.PaymentAddress, &res.PricePerRequest,
		&res.IsActive, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get resource by id: %w", err)
	}
	return res, nil
}

// ListActive returns all active catalog entries, newest first.
func (r *ResourceRepo) ListActive(ctx context.Context) ([]domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM x402_resources WHERE is_active = true ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active resources: %w", err)
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		var res domain.Resource
		if err := rows.Scan(
			&res.ID, &res.Name, &res.Description, &res.BaseURL,
			&res.WellKnownURL, &res.PaymentAddress, &res.PricePerRequest,
			&res.IsActive, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}
	return resources, nil
}
