package dto

import (
	"encoding/json"
	"time"
)

// ProxyRequest is the request body for POST /api/v1/proxy.
type ProxyRequest struct {
	ResourceID string        `json:"resourceId" binding:"required,safe_id"`
	Path       string        `json:"path" binding:"required"`
	Params     OrderedParams `json:"params"`
	SessionID  string        `json:"sessionId" binding:"required,session_token"`
}

// PaymentInfo is the settlement metadata attached to a paid proxy response.
type PaymentInfo struct {
	TxHash string `json:"txHash"`
	Amount string `json:"amount"`
	To     string `json:"to"`
}

// ProxyResponse is the success body for POST /api/v1/proxy.
type ProxyResponse struct {
	Data          json.RawMessage `json:"data"`
	Payment       *PaymentInfo    `json:"payment,omitempty"`
	WalletAddress string          `json:"walletAddress"`
	RequestID     string          `json:"requestId"`
}

// WalletInfoResponse is the body for GET /api/v1/server-wallet.
type WalletInfoResponse struct {
	Address          string `json:"address"`
	Balance          string `json:"balance"`
	BalanceFormatted string `json:"balanceFormatted"`
	SessionID        string `json:"sessionId"`
	CreatedAt        int64  `json:"createdAt"`
}

// ResourceResponse is one catalog entry in GET /api/v1/resources.
type ResourceResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	BaseURL         string  `json:"baseUrl"`
	PaymentAddress  *string `json:"paymentAddress,omitempty"`
	PricePerRequest *int64  `json:"pricePerRequest,omitempty"`
	CreatedAt       int64   `json:"createdAt"`
}

// ResourceListResponse is the body for GET /api/v1/resources.
type ResourceListResponse struct {
	Items []ResourceResponse `json:"items"`
	Total int                `json:"total"`
}

// RequestHistoryItem is one audit ledger entry in GET /api/v1/requests.
type RequestHistoryItem struct {
	ID             string          `json:"id"`
	ResourceID     string          `json:"resourceId"`
	Path           string          `json:"path"`
	Params         OrderedParams   `json:"params,omitempty"`
	ResponseStatus int             `json:"responseStatus"`
	ResponseData   json.RawMessage `json:"responseData,omitempty"`
	Status         string          `json:"status"`
	TxHash         *string         `json:"txHash,omitempty"`
	PaymentAmount  *string         `json:"paymentAmount,omitempty"`
	PaymentTo      *string         `json:"paymentTo,omitempty"`
	ErrorMessage   *string         `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

// RequestHistoryResponse is the body for GET /api/v1/requests.
type RequestHistoryResponse struct {
	Items []RequestHistoryItem `json:"items"`
	Total int                  `json:"total"`
}
