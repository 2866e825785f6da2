package handler

import (
	"github.com/GiantDole/okayokayokay/internal/adapter/http/dto"
	"github.com/GiantDole/okayokayokay/internal/core/domain"
	"github.com/GiantDole/okayokayokay/internal/core/ports"
	"github.com/GiantDole/okayokayokay/pkg/apperror"
	"github.com/GiantDole/okayokayokay/pkg/response"

	"github.com/gin-gonic/gin"
)

// ResourceHandler handles resource catalog endpoints.
type ResourceHandler struct {
	resourceRepo ports.ResourceRepository
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler(resourceRepo ports.ResourceRepository) *ResourceHandler {
	return &ResourceHandler{resourceRepo: resourceRepo}
}

// ListResources handles GET /api/v1/resources. Only active catalog entries
// are exposed.
func (h *ResourceHandler) ListResources(c *gin.Context) {
	resources, err := h.resourceRepo.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, apperror.ErrDatabaseError(err))
		return
	}

	items := make([]dto.ResourceResponse, 0, len(resources))
	for i := range resources {
		items = append(items, toResourceResponse(&resources[i]))
	}

	response.OK(c, dto.ResourceListResponse{
		Items: items,
		Total: len(items),
	})
}

func toResourceResponse(r *domain.Resource) dto.ResourceResponse {
	return dto.ResourceResponse{
		ID:              r.ID.String(),
		Name:            r.Name,
		Description:     r.Description,
		BaseURL:         r.BaseURL,
		PaymentAddress:  r.PaymentAddress,
		PricePerRequest: r.PricePerRequest,
		CreatedAt:       r.CreatedAt.Unix(),
	}
}
