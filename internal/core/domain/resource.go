package domain

import (
	"time"

	"github.com/google/uuid"
)

// Resource is an entry in the x402 resource catalog. The catalog is owned by
// an external collaborator; this subsystem only reads it.
type Resource struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	BaseURL         string    `json:"base_url"`
	WellKnownURL    string    `json:"well_known_url,omitempty"`
	PaymentAddress  *string   `json:"payment_address,omitempty"`
	PricePerRequest *int64    `json:"price_per_request,omitempty"` // hint in atomic units
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
