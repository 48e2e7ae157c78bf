package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	integrityapp "github.com/kolnet/backend/internal/application/integrity"
	"github.com/kolnet/backend/internal/domain/integrity"
)

// IntegrityHandler serves reference checks and safe deletes
type IntegrityHandler struct {
	BaseHandler
	service *integrityapp.Service
}

// NewIntegrityHandler creates a new IntegrityHandler
func NewIntegrityHandler(service *integrityapp.Service) *IntegrityHandler {
	return &IntegrityHandler{service: service}
}

// Catalog returns the reference catalog, optionally narrowed to the
// declarations targeting ?table=
func (h *IntegrityHandler) Catalog(c *gin.Context) {
	if _, ok := h.actor(c); !ok {
		return
	}
	raw := c.Query("table")
	if raw == "" {
		h.Success(c, h.service.ListCatalog())
		return
	}
	table, err := integrity.ParseTable(raw)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.service.CatalogFor(table))
}

// Check godoc
// @ID           checkIntegrity
// @Summary      List the rows referencing a record, classified by policy
// @Tags         integrity
// @Produce      json
// @Param        table path string true "Table name"
// @Param        id    path string true "Record ID"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /integrity/{table}/{id} [get]
func (h *IntegrityHandler) Check(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	table, id, ok := h.target(c)
	if !ok {
		return
	}

	report, err := h.service.CheckIntegrity(c.Request.Context(), actor, table, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// SafeDelete godoc
// @ID           safeDelete
// @Summary      Delete a record, cascading per the reference catalog
// @Description  Restrict references block the delete with 409 and the list of
// @Description  violations unless force=true.
// @Tags         integrity
// @Produce      json
// @Param        table path  string true  "Table name"
// @Param        id    path  string true  "Record ID"
// @Param        force query bool   false "Delete restrict references too"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /integrity/{table}/{id} [delete]
func (h *IntegrityHandler) SafeDelete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	table, id, ok := h.target(c)
	if !ok {
		return
	}
	force := false
	if raw := c.Query("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, "force must be a boolean")
			return
		}
		force = parsed
	}

	result, err := h.service.SafeDelete(c.Request.Context(), actor, table, id, force)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *IntegrityHandler) target(c *gin.Context) (integrity.Table, uuid.UUID, bool) {
	table, err := integrity.ParseTable(c.Param("table"))
	if err != nil {
		h.HandleError(c, err)
		return "", uuid.Nil, false
	}
	id, ok := h.pathUUID(c, "id")
	return table, id, ok
}
