package handler

import (
	"github.com/gin-gonic/gin"
	networkapp "github.com/kolnet/backend/internal/application/network"
	"github.com/kolnet/backend/internal/interfaces/http/middleware"
)

// RelationshipHandler serves the relationship graph endpoints
type RelationshipHandler struct {
	BaseHandler
	service *networkapp.RelationshipService
}

// NewRelationshipHandler creates a new RelationshipHandler
func NewRelationshipHandler(service *networkapp.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{service: service}
}

// Create godoc
// @ID           createRelationship
// @Summary      Attach a child under a parent
// @Tags         relationships
// @Accept       json
// @Produce      json
// @Param        request body networkapp.CreateRelationshipRequest true "Relationship"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /relationships [post]
func (h *RelationshipHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req networkapp.CreateRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	rel, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rel)
}

// List godoc
// @ID           listRelationships
// @Summary      List relationships filtered by child, parent and activity
// @Tags         relationships
// @Produce      json
// @Param        child_id    query string false "Child entity ID"
// @Param        parent_id   query string false "Parent entity ID"
// @Param        active_only query bool   false "Only active rows"
// @Param        limit       query int    false "Maximum rows"
// @Success      200 {object} dto.Response
// @Router       /relationships [get]
func (h *RelationshipHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	childID, ok := h.queryUUID(c, "child_id")
	if !ok {
		return
	}
	parentID, ok := h.queryUUID(c, "parent_id")
	if !ok {
		return
	}
	limit, ok := h.queryInt(c, "limit", 0)
	if !ok {
		return
	}

	filter := networkapp.ListRelationshipsFilter{
		ChildID:    childID,
		ParentID:   parentID,
		ActiveOnly: c.Query("active_only") == "true",
		Limit:      limit,
	}
	rels, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, rels, len(rels), limit)
}

// History returns every relationship a child ever had, newest first
func (h *RelationshipHandler) History(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	childID, ok := h.pathUUID(c, "childId")
	if !ok {
		return
	}

	rels, err := h.service.History(c.Request.Context(), actor, childID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, rels, len(rels), 0)
}

// Update godoc
// @ID           updateRelationship
// @Summary      Repoint a relationship to a new parent
// @Tags         relationships
// @Accept       json
// @Produce      json
// @Param        id      path string true "Relationship ID"
// @Param        request body networkapp.UpdateRelationshipRequest true "New parent"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /relationships/{id} [put]
func (h *RelationshipHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req networkapp.UpdateRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	rel, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rel)
}

// End closes a relationship. The body is optional; without ended_at the
// relationship ends now.
func (h *RelationshipHandler) End(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req networkapp.EndRelationshipRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	rel, err := h.service.End(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rel)
}

// Delete removes one relationship row by ID
func (h *RelationshipHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// DeleteByChild removes every relationship row of the child_id query parameter
func (h *RelationshipHandler) DeleteByChild(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	childID, ok := h.queryUUID(c, "child_id")
	if !ok {
		return
	}
	if childID == nil {
		h.BadRequest(c, "child_id is required")
		return
	}

	result, err := h.service.DeleteByChild(c.Request.Context(), actor, *childID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetActive returns the child's relationship in force at the optional "at"
// timestamp. Data is null when there is none.
func (h *RelationshipHandler) GetActive(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	childID, ok := h.pathUUID(c, "childId")
	if !ok {
		return
	}
	at, ok := h.queryTime(c, "at")
	if !ok {
		return
	}

	rel, err := h.service.GetActive(c.Request.Context(), actor, childID, at)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rel)
}

// ParentChain godoc
// @ID           getParentChain
// @Summary      Ancestors of an entity, nearest first
// @Tags         entities
// @Produce      json
// @Param        id path string true "Entity ID"
// @Success      200 {object} dto.Response
// @Router       /entities/{id}/parent-chain [get]
func (h *RelationshipHandler) ParentChain(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	chain, err := h.service.GetParentChain(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, chain)
}

// Subordinates lists the active direct children of an entity
func (h *RelationshipHandler) Subordinates(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	rels, err := h.service.GetSubordinates(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, rels, len(rels), 0)
}

// OrganizationTree returns the whole organization forest
func (h *RelationshipHandler) OrganizationTree(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	forest, err := h.service.BuildOrganizationTree(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, forest)
}
