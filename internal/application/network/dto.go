package network

import (
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/network"
)

// CreateRelationshipRequest attaches a child under a parent
type CreateRelationshipRequest struct {
	ChildID          uuid.UUID  `json:"child_id" binding:"required"`
	ParentID         *uuid.UUID `json:"parent_id"`
	StartedAt        *time.Time `json:"started_at"`
	RelationshipType string     `json:"relationship_type" binding:"omitempty,oneof=direct transferred temporary"`
	Notes            string     `json:"notes" binding:"max=1000"`
}

// UpdateRelationshipRequest repoints an existing relationship
type UpdateRelationshipRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
	Notes    string     `json:"notes" binding:"max=1000"`
}

// EndRelationshipRequest closes a relationship. A nil EndedAt means now.
type EndRelationshipRequest struct {
	EndedAt *time.Time `json:"ended_at"`
}

// ListRelationshipsFilter narrows List results
type ListRelationshipsFilter struct {
	ChildID    *uuid.UUID `form:"child_id"`
	ParentID   *uuid.UUID `form:"parent_id"`
	ActiveOnly bool       `form:"active_only"`
	Limit      int        `form:"limit" binding:"omitempty,min=1,max=500"`
}

// RelationshipResponse is the API view of a relationship
type RelationshipResponse struct {
	ID               uuid.UUID  `json:"id"`
	ChildID          uuid.UUID  `json:"child_id"`
	ParentID         *uuid.UUID `json:"parent_id"`
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at"`
	IsActive         bool       `json:"is_active"`
	RelationshipType string     `json:"relationship_type"`
	Notes            string     `json:"notes"`
	CreatedBy        *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Version          int        `json:"version"`
}

// ToRelationshipResponse converts a domain relationship
func ToRelationshipResponse(r *network.Relationship) RelationshipResponse {
	return RelationshipResponse{
		ID:               r.ID,
		ChildID:          r.ChildID,
		ParentID:         r.ParentID,
		StartedAt:        r.StartedAt,
		EndedAt:          r.EndedAt,
		IsActive:         r.IsActive,
		RelationshipType: r.RelationshipType.String(),
		Notes:            r.Notes,
		CreatedBy:        r.CreatedBy,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		Version:          r.Version,
	}
}

// ToRelationshipResponses converts a slice of domain relationships
func ToRelationshipResponses(rels []network.Relationship) []RelationshipResponse {
	out := make([]RelationshipResponse, len(rels))
	for i := range rels {
		out[i] = ToRelationshipResponse(&rels[i])
	}
	return out
}

// ParentChainResponse lists the ancestors of a child, nearest first
type ParentChainResponse struct {
	ChildID    uuid.UUID   `json:"child_id"`
	Ancestors  []uuid.UUID `json:"ancestors"`
	TopLevelID *uuid.UUID  `json:"top_level_id"`
	// Truncated is set when the walk hit the depth cap or a repeated node
	Truncated bool `json:"truncated"`
}

// DeleteResult reports how many rows a delete removed
type DeleteResult struct {
	Deleted int64 `json:"deleted"`
}
