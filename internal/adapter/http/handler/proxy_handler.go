package handler

import (
	"github.com/GiantDole/okayokayokay/internal/adapter/http/dto"
	"github.com/GiantDole/okayokayokay/internal/core/domain"
	"github.com/GiantDole/okayokayokay/internal/core/ports"
	"github.com/GiantDole/okayokayokay/pkg/apperror"
	"github.com/GiantDole/okayokayokay/pkg/response"

	"github.com/gin-gonic/gin"
)

// ProxyHandler handles the metered resource proxy endpoint.
type ProxyHandler struct {
	proxySvc ports.ProxyService
}

// NewProxyHandler creates a new ProxyHandler.
func NewProxyHandler(proxySvc ports.ProxyService) *ProxyHandler {
	return &ProxyHandler{proxySvc: proxySvc}
}

// Proxy handles POST /api/v1/proxy.
func (h *ProxyHandler) Proxy(c *gin.Context) {
	var req dto.ProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.proxySvc.Proxy(c.Request.Context(), ports.ProxyRequest{
		ResourceID: req.ResourceID,
		Path:       req.Path,
		Params:     []domain.QueryParam(req.Params),
		SessionID:  req.SessionID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.ProxyResponse{
		Data:          result.Data,
		WalletAddress: result.WalletAddress,
		RequestID:     result.RequestID,
	}
	if result.PaymentDetails != nil {
		resp.Payment = &dto.PaymentInfo{
			TxHash: result.PaymentDetails.TxHash,
			Amount: result.PaymentDetails.Amount,
			To:     result.PaymentDetails.To,
		}
	}

	response.OK(c, resp)
}
