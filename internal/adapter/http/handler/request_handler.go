package handler

import (
	"strconv"

	"github.com/GiantDole/okayokayokay/internal/adapter/http/dto"
	"github.com/GiantDole/okayokayokay/internal/core/domain"
	"github.com/GiantDole/okayokayokay/internal/core/ports"
	"github.com/GiantDole/okayokayokay/pkg/apperror"
	"github.com/GiantDole/okayokayokay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// RequestHandler handles the request history endpoint.
type RequestHandler struct {
	requestRepo ports.RequestRepository
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(requestRepo ports.RequestRepository) *RequestHandler {
	return &RequestHandler{requestRepo: requestRepo}
}

// ListRequests handles GET /api/v1/requests. Scoped either to the caller's
// session, or to one catalog resource when resourceId is given (the
// reconciliation read path).
func (h *RequestHandler) ListRequests(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if limit < 1 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	var (
		requests []domain.ResourceRequest
		err      error
	)
	if rawResource := c.Query("resourceId"); rawResource != "" {
		resourceID, parseErr := uuid.Parse(rawResource)
		if parseErr != nil {
			response.Error(c, apperror.Validation("resourceId must be a valid UUID"))
			return
		}
		requests, err = h.requestRepo.ListByResource(c.Request.Context(), resourceID, limit)
	} else {
		sessionID := sessionFromRequest(c)
		if sessionID == "" {
			response.Error(c, apperror.ErrMissingFields("sessionId"))
			return
		}
		if !dto.ValidSessionToken(sessionID) {
			response.Error(c, apperror.Validation("sessionId contains invalid characters"))
			return
		}
		requests, err = h.requestRepo.ListBySession(c.Request.Context(), sessionID, limit)
	}
	if err != nil {
		response.Error(c, apperror.ErrDatabaseError(err))
		return
	}

	items := make([]dto.RequestHistoryItem, 0, len(requests))
	for i := range requests {
		items = append(items, toRequestHistoryItem(&requests[i]))
	}

	response.OK(c, dto.RequestHistoryResponse{
		Items: items,
		Total: len(items),
	})
}

func toRequestHistoryItem(r *domain.ResourceRequest) dto.RequestHistoryItem {
	return dto.RequestHistoryItem{
		ID:             r.ID.String(),
		ResourceID:     r.ResourceID.String(),
		Path:           r.Path,
		Params:         dto.OrderedParams(r.Params),
		ResponseStatus: r.ResponseStatus,
		ResponseData:   r.ResponseData,
		Status:         string(r.Status),
		TxHash:         r.TxHash,
		PaymentAmount:  r.PaymentAmount,
		PaymentTo:      r.PaymentTo,
		ErrorMessage:   r.ErrorMessage,
		CreatedAt:      r.CreatedAt,
		CompletedAt:    r.CompletedAt,
	}
}
