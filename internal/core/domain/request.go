package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the lifecycle state of a resource access attempt.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusFailed    RequestStatus = "failed"
)

// QueryParam is one query-string pair. Params are kept as an ordered slice so
// that insertion order and duplicate keys survive the round trip to the
// upstream resource.
type QueryParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ResourceRequest is one append-only audit ledger entry for a resource access
// attempt. Written exclusively by the proxy service; read later by the
// external dispute-arbitration collaborator.
type ResourceRequest struct {
	ID             uuid.UUID       `json:"id"`
	ResourceID     uuid.UUID       `json:"resource_id"`
	SessionID      string          `json:"session_id"`
	Path           string          `json:"request_path"`
	Params         []QueryParam    `json:"request_params,omitempty"`
	ResponseStatus int             `json:"response_status"`
	ResponseData   json.RawMessage `json:"response_data,omitempty"`
	Status         RequestStatus   `json:"status"`
	TxHash         *string         `json:"tx_hash,omitempty"`
	PaymentAmount  *string         `json:"payment_amount,omitempty"`
	PaymentTo      *string         `json:"payment_to_address,omitempty"`
	Nonce          *string         `json:"nonce,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// IsTerminal returns true if the request reached a final state.
func (r *ResourceRequest) IsTerminal() bool {
	return r.Status == RequestStatusCompleted || r.Status == RequestStatusFailed
}
