package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/GiantDole/okayokayokay/internal/core/domain"
)

// ParsePaymentRequired decodes and validates the JSON body of a 402 response.
func ParsePaymentRequired(body []byte) (*domain.PaymentRequiredResponse, error) {
	var resp domain.PaymentRequiredResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("malformed challenge body: %w", err)
	}
	if resp.X402Version != domain.X402Version {
		return nil, fmt.Errorf("unsupported x402 version %d", resp.X402Version)
	}
	if len(resp.Accepts) == 0 {
		return nil, fmt.Errorf("challenge offers no payment options")
	}
	return &resp, nil
}

// SelectRequirements picks the payment option to satisfy. Options on the
// preferred network win; otherwise the first exact-scheme option is used.
func SelectRequirements(resp *domain.PaymentRequiredResponse, preferredNetwork string) (*domain.PaymentRequirements, error) {
	var fallback *domain.PaymentRequirements
	for i := range resp.Accepts {
		opt := &resp.Accepts[i]
		if opt.Scheme != domain.SchemeExact {
			continue
		}
		if opt.Network == preferredNetwork {
			return opt, nil
		}
		if fallback == nil {
			fallback = opt
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("no exact-scheme payment option in challenge")
	}
	return fallback, nil
}

// ValidateRequirements rejects options this client cannot satisfy.
func ValidateRequirements(req *domain.PaymentRequirements) error {
	if req.PayTo == "" {
		return fmt.Errorf("challenge option missing payTo")
	}
	if req.Asset == "" {
		return fmt.Errorf("challenge option missing asset")
	}
	if req.MaxAmountRequired == "" {
		return fmt.Errorf("challenge option missing maxAmountRequired")
	}
	if _, err := ChainIDForNetwork(req.Network); err != nil {
		return err
	}
	return nil
}

// EncodePaymentHeader serializes a payment payload into the X-Payment header
// value: base64 over compact JSON.
func EncodePaymentHeader(payload domain.PaymentPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding payment payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodePaymentHeader is the inverse of EncodePaymentHeader.
func DecodePaymentHeader(header string) (*domain.PaymentPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("decoding payment header: %w", err)
	}
	var payload domain.PaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decoding payment header: %w", err)
	}
	return &payload, nil
}

// DecodeSettleResponse parses the base64 X-Payment-Response header attached
// by resource servers that report settlement.
func DecodeSettleResponse(header string) (*domain.SettleResponse, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("decoding settle response: %w", err)
	}
	var resp domain.SettleResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding settle response: %w", err)
	}
	return &resp, nil
}
