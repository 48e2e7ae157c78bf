package handler

import (
	"github.com/gin-gonic/gin"
	commissionapp "github.com/kolnet/backend/internal/application/commission"
	"github.com/kolnet/backend/internal/interfaces/http/middleware"
)

// CommissionHandler serves commission pricing and ledger endpoints
type CommissionHandler struct {
	BaseHandler
	service *commissionapp.Service
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(service *commissionapp.Service) *CommissionHandler {
	return &CommissionHandler{service: service}
}

// Quote prices an amount sold under a child without writing anything
func (h *CommissionHandler) Quote(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req commissionapp.PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	quote, err := h.service.PriceTransaction(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Apply godoc
// @ID           applyCommission
// @Summary      Price an amount and write it to the commission ledger
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        request body commissionapp.ApplyCommissionRequest true "Commission source"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /commissions/entries [post]
func (h *CommissionHandler) Apply(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req commissionapp.ApplyCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	entry, err := h.service.ApplyCommission(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// ListEntries returns the ledger of the entity_id query parameter
func (h *CommissionHandler) ListEntries(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	entityID, ok := h.queryUUID(c, "entity_id")
	if !ok {
		return
	}
	if entityID == nil {
		h.BadRequest(c, "entity_id is required")
		return
	}
	limit, ok := h.queryInt(c, "limit", 0)
	if !ok {
		return
	}

	entries, err := h.service.ListEntries(c.Request.Context(), actor, *entityID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, entries, len(entries), limit)
}
