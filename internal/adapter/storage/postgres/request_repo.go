package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GiantDole/okayokayokay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RequestRepo implements ports.RequestRepository. The resource_requests
// table is append-only from this subsystem's point of view.
type RequestRepo struct {
	pool Pool
}

// NewRequestRepo creates a new RequestRepo.
func NewRequestRepo(pool Pool) *RequestRepo {
	return &RequestRepo{pool: pool}
}

const requestColumns = `id, resource_id, session_id, request_path, request_params, response_status, response_data, status, tx_hash, payment_amount, payment_to_address, nonce, error_message, created_at, completed_at`

// Create appends one ledger entry.
func (r *RequestRepo) Create(ctx context.Context, req *domain.ResourceRequest) error {
	query := `INSERT INTO resource_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	params, err := encodeParams(req.Params)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		req.ID, req.ResourceID, req.SessionID, req.Path, params,
		req.ResponseStatus, []byte(req.ResponseData), req.Status,
		req.TxHash, req.PaymentAmount, req.PaymentTo, req.Nonce,
		req.ErrorMessage, req.CreatedAt, req.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert resource request: %w", err)
	}
	return nil
}

// GetByID fetches one ledger entry.
func (r *RequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ResourceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM resource_requests WHERE id = $1`

	req, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get resource request by id: %w", err)
	}
	return req, nil
}

// ListBySession returns a session's most recent entries, newest first.
func (r *RequestRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.ResourceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM resource_requests
		WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list resource requests: %w", err)
	}
	defer rows.Close()

	var requests []domain.ResourceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource request: %w", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resource requests: %w", err)
	}
	return requests, nil
}

// ListByResource returns the most recent entries for one catalog resource,
// newest first. Read path for settlement reconciliation.
func (r *RequestRepo) ListByResource(ctx context.Context, resourceID uuid.UUID, limit int) ([]domain.ResourceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM resource_requests
		WHERE resource_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, resourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list resource requests by resource: %w", err)
	}
	defer rows.Close()

	var requests []domain.ResourceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource request: %w", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resource requests: %w", err)
	}
	return requests, nil
}

// scanRequest reads one row in requestColumns order.
func scanRequest(row pgx.Row) (*domain.ResourceRequest, error) {
	req := &domain.ResourceRequest{}
	var params, responseData []byte

	err := row.Scan(
		&req.ID, &req.ResourceID, &req.SessionID, &req.Path, &params,
		&req.ResponseStatus, &responseData, &req.Status,
		&req.TxHash, &req.PaymentAmount, &req.PaymentTo, &req.Nonce,
		&req.ErrorMessage, &req.CreatedAt, &req.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(params) > 0 {
		if err := json.Unmarshal(params, &req.Params); err != nil {
			return nil, fmt.Errorf("decode request params: %w", err)
		}
	}
	if len(responseData) > 0 {
		req.ResponseData = json.RawMessage(responseData)
	}
	return req, nil
}

// encodeParams serializes ordered query params for the JSONB column.
// An empty slice is stored as NULL.
func encodeParams(params []domain.QueryParam) ([]byte, error) {
	if len(params) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode request params: %w", err)
	}
	return raw, nil
}
