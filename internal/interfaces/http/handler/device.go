package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	commissionapp "github.com/kolnet/backend/internal/application/commission"
	deviceapp "github.com/kolnet/backend/internal/application/device"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/interfaces/http/middleware"
)

// DeviceHandler serves accumulator and device sale endpoints
type DeviceHandler struct {
	BaseHandler
	devices     *deviceapp.Service
	commissions *commissionapp.Service
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(devices *deviceapp.Service, commissions *commissionapp.Service) *DeviceHandler {
	return &DeviceHandler{devices: devices, commissions: commissions}
}

// RecordSale adds sold units to an entity's accumulator
func (h *DeviceHandler) RecordSale(c *gin.Context) {
	h.recordUnits(c, h.devices.RecordSale)
}

// RecordReturn subtracts returned units from an entity's accumulator
func (h *DeviceHandler) RecordReturn(c *gin.Context) {
	h.recordUnits(c, h.devices.RecordReturn)
}

type unitsFunc func(ctx context.Context, actor shared.Actor, entityID uuid.UUID, req deviceapp.RecordUnitsRequest) (*deviceapp.UnitsResult, error)

func (h *DeviceHandler) recordUnits(c *gin.Context, apply unitsFunc) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	entityID, ok := h.pathUUID(c, "entityId")
	if !ok {
		return
	}
	var req deviceapp.RecordUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := apply(c.Request.Context(), actor, entityID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetStats returns an entity's accumulator snapshot. Entities without sales
// get the zero snapshot.
func (h *DeviceHandler) GetStats(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	entityID, ok := h.pathUUID(c, "entityId")
	if !ok {
		return
	}

	stats, err := h.devices.GetStats(c.Request.Context(), actor, entityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// List ranks accumulators by net units sold
func (h *DeviceHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	limit, ok := h.queryInt(c, "limit", 0)
	if !ok {
		return
	}

	list, err := h.devices.ListAccumulators(c.Request.Context(), actor, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, list, len(list), limit)
}

// Simulate projects the tier after ?additional= more units without writing
func (h *DeviceHandler) Simulate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	entityID, ok := h.pathUUID(c, "entityId")
	if !ok {
		return
	}
	additional, ok := h.queryInt(c, "additional", 0)
	if !ok {
		return
	}

	sim, err := h.devices.SimulateTierChange(c.Request.Context(), actor, entityID, int64(additional))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sim)
}

// RecordDeviceSale godoc
// @ID           recordDeviceSale
// @Summary      Record a shop's device sale or return
// @Description  Writes the device sale ledger row and applies the units to the
// @Description  top-level entity's accumulator in one transaction.
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        request body commissionapp.DeviceSaleRequest true "Sale (negative quantity for a return)"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /devices/sales [post]
func (h *DeviceHandler) RecordDeviceSale(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req commissionapp.DeviceSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	sale, err := h.commissions.RecordDeviceSale(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// ListDeviceSales returns ledger rows, optionally narrowed by shop_id and
// the start_date/end_date range
func (h *DeviceHandler) ListDeviceSales(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	shopID, ok := h.queryUUID(c, "shop_id")
	if !ok {
		return
	}
	from, to, ok := h.queryRange(c)
	if !ok {
		return
	}
	limit, ok := h.queryInt(c, "limit", 0)
	if !ok {
		return
	}

	sales, err := h.commissions.ListDeviceSales(c.Request.Context(), actor, device.SaleFilter{
		ShopID: shopID,
		From:   from,
		To:     to,
		Limit:  limit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, sales, len(sales), limit)
}

// Statistics summarizes device sales over the start_date/end_date range and
// lists the top accumulators
func (h *DeviceHandler) Statistics(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	from, to, ok := h.queryRange(c)
	if !ok {
		return
	}

	stats, err := h.commissions.DeviceStatistics(c.Request.Context(), actor, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
