package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GiantDole/okayokayokay/internal/core/domain"
	"github.com/GiantDole/okayokayokay/internal/core/ports"
	"github.com/GiantDole/okayokayokay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProxyServiceImpl implements ports.ProxyService. One call is one resource
// access attempt: resolve the catalog entry, load the session wallet, run
// the payment client, and append exactly one audit record with the final
// outcome.
type ProxyServiceImpl struct {
	resourceRepo ports.ResourceRepository
	requestRepo  ports.RequestRepository
	walletSvc    ports.WalletService
	client       ports.PaymentClient
	timeout      time.Duration
	log          zerolog.Logger
}

// NewProxyService creates a new ProxyServiceImpl.
func NewProxyService(
	resourceRepo ports.ResourceRepository,
	requestRepo ports.RequestRepository,
	walletSvc ports.WalletService,
	client ports.PaymentClient,
	timeout time.Duration,
	log zerolog.Logger,
) *ProxyServiceImpl {
	return &ProxyServiceImpl{
		resourceRepo: resourceRepo,
		requestRepo:  requestRepo,
		walletSvc:    walletSvc,
		client:       client,
		timeout:      timeout,
		log:          log,
	}
}

// Proxy performs a metered resource access on behalf of a session.
func (s *ProxyServiceImpl) Proxy(ctx context.Context, req ports.ProxyRequest) (*ports.ProxyResult, error) {
	resourceID, err := uuid.Parse(req.ResourceID)
	if err != nil {
		return nil, apperror.Validation("resourceId must be a valid UUID")
	}
	if strings.TrimSpace(req.Path) == "" {
		return nil, apperror.ErrMissingFields("path")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, apperror.ErrMissingFields("sessionId")
	}

	resource, err := s.resourceRepo.GetByID(ctx, resourceID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lookup resource: %w", err))
	}
	if resource == nil {
		return nil, apperror.ErrResourceNotFound()
	}
	if !resource.IsActive {
		return nil, apperror.ErrResourceInactive()
	}

	identity, err := s.walletSvc.GetOrCreate(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	targetURL, err := buildTargetURL(resource.BaseURL, req.Path, req.Params)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result := s.client.Execute(callCtx, targetURL, identity, ports.RequestOptions{})

	record := s.buildAuditRecord(resource.ID, req, result)
	if err := s.requestRepo.Create(ctx, record); err != nil {
		// The upstream exchange already happened; losing the audit row
		// must not turn a paid success into a client-facing failure.
		s.log.Error().Err(err).
			Str("request_id", record.ID.String()).
			Str("session_id", req.SessionID).
			Msg("failed to append audit record")
	}

	if !result.Success {
		s.log.Warn().
			Str("request_id", record.ID.String()).
			Str("resource_id", resource.ID.String()).
			Int("status", result.StatusCode).
			Str("reason", result.Error).
			Msg("resource access failed")
		return nil, apperror.ErrPaymentChallenge(result.Error)
	}

	s.log.Info().
		Str("request_id", record.ID.String()).
		Str("resource_id", resource.ID.String()).
		Str("session_id", req.SessionID).
		Bool("paid", result.PaymentDetails != nil).
		Msg("resource access completed")

	return &ports.ProxyResult{
		Data:           asJSON(result.Data),
		PaymentDetails: result.PaymentDetails,
		WalletAddress:  identity.Address,
		RequestID:      record.ID.String(),
	}, nil
}

// buildAuditRecord assembles the single ledger entry for this attempt.
func (s *ProxyServiceImpl) buildAuditRecord(resourceID uuid.UUID, req ports.ProxyRequest, result *ports.PaymentResult) *domain.ResourceRequest {
	status := result.StatusCode
	if !result.Success && status == 0 {
		// Transport-level failures carry no upstream status.
		status = http.StatusInternalServerError
	}

	now := time.Now().UTC()
	record := &domain.ResourceRequest{
		ID:             uuid.New(),
		ResourceID:     resourceID,
		SessionID:      req.SessionID,
		Path:           req.Path,
		Params:         req.Params,
		ResponseStatus: status,
		CreatedAt:      now,
		CompletedAt:    &now,
	}

	if result.Nonce != "" {
		record.Nonce = &result.Nonce
	}
	if result.PaymentDetails != nil {
		record.TxHash = &result.PaymentDetails.TxHash
		record.PaymentAmount = &result.PaymentDetails.Amount
		record.PaymentTo = &result.PaymentDetails.To
	}

	if result.Success {
		record.Status = domain.RequestStatusCompleted
		record.ResponseData = asJSON(result.Data)
	} else {
		record.Status = domain.RequestStatusFailed
		msg := result.Error
		record.ErrorMessage = &msg
	}
	return record
}

// buildTargetURL joins the catalog base URL with the requested sub-path and
// encodes query parameters preserving order and duplicate keys.
func buildTargetURL(baseURL, path string, params []domain.QueryParam) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid resource base URL")
	}

	target := *base
	if path != "" {
		joined := strings.TrimSuffix(base.Path, "/")
		if !strings.HasPrefix(path, "/") {
			joined += "/"
		}
		target.Path = joined + path
	}

	if len(params) > 0 {
		var sb strings.Builder
		for i, p := range params {
			if i > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(url.QueryEscape(p.Key))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(p.Value))
		}
		target.RawQuery = sb.String()
	}

	return target.String(), nil
}

// asJSON passes JSON bodies through untouched and wraps anything else as a
// JSON string so the result is always valid JSON.
func asJSON(data []byte) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(data) {
		return data
	}
	quoted, err := json.Marshal(string(data))
	if err != nil {
		return json.RawMessage("null")
	}
	return quoted
}
