package handler

import (
	"github.com/GiantDole/okayokayokay/internal/adapter/http/dto"
	"github.com/GiantDole/okayokayokay/internal/adapter/http/middleware"
	"github.com/GiantDole/okayokayokay/internal/core/ports"
	"github.com/GiantDole/okayokayokay/pkg/apperror"
	"github.com/GiantDole/okayokayokay/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles the session wallet endpoint.
type WalletHandler struct {
	balanceSvc ports.BalanceService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(balanceSvc ports.BalanceService) *WalletHandler {
	return &WalletHandler{balanceSvc: balanceSvc}
}

// GetServerWallet handles GET /api/v1/server-wallet. Provisions the wallet on
// first call for the session, so callers can fund it before any proxy call.
func (h *WalletHandler) GetServerWallet(c *gin.Context) {
	sessionID := sessionFromRequest(c)
	if sessionID == "" {
		response.Error(c, apperror.ErrMissingFields("sessionId"))
		return
	}
	if !dto.ValidSessionToken(sessionID) {
		response.Error(c, apperror.Validation("sessionId contains invalid characters"))
		return
	}

	info, err := h.balanceSvc.GetWalletInfo(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletInfoResponse{
		Address:          info.Address,
		Balance:          info.Balance,
		BalanceFormatted: info.BalanceFormatted,
		SessionID:        info.SessionID,
		CreatedAt:        info.CreatedAt.Unix(),
	})
}

// sessionFromRequest reads the session identifier from the query string,
// falling back to the X-Session-Id header.
func sessionFromRequest(c *gin.Context) string {
	if sid := c.Query("sessionId"); sid != "" {
		return sid
	}
	return c.GetHeader(middleware.HeaderSessionID)
}
