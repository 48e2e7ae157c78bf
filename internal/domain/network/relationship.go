package network

import (
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/shared"
)

// RelationshipType classifies how a child came under its parent
type RelationshipType string

const (
	// RelationshipTypeDirect is an ordinary recruitment edge
	RelationshipTypeDirect RelationshipType = "direct"
	// RelationshipTypeTransferred marks a child moved from another parent
	RelationshipTypeTransferred RelationshipType = "transferred"
	// RelationshipTypeTemporary marks a short-lived assignment
	RelationshipTypeTemporary RelationshipType = "temporary"
)

// String returns the string representation of RelationshipType
func (t RelationshipType) String() string {
	return string(t)
}

// IsValid returns true if the relationship type is known
func (t RelationshipType) IsValid() bool {
	switch t {
	case RelationshipTypeDirect, RelationshipTypeTransferred, RelationshipTypeTemporary:
		return true
	}
	return false
}

// Relationship is a directed, temporally scoped parent -> child edge.
// A nil ParentID marks the child as explicitly attached to nobody.
type Relationship struct {
	shared.BaseAggregateRoot
	ChildID          uuid.UUID
	ParentID         *uuid.UUID
	StartedAt        time.Time
	EndedAt          *time.Time
	IsActive         bool
	RelationshipType RelationshipType
	Notes            string
	CreatedBy        *uuid.UUID
}

// NewRelationship creates an active relationship starting at startedAt.
func NewRelationship(childID uuid.UUID, parentID *uuid.UUID, startedAt time.Time, relType RelationshipType, notes string) (*Relationship, error) {
	if childID == uuid.Nil {
		return nil, shared.NewValidationError("child ID cannot be empty")
	}
	if relType == "" {
		relType = RelationshipTypeDirect
	}
	if !relType.IsValid() {
		return nil, shared.NewValidationError("invalid relationship type %q", relType)
	}
	if err := checkNotSelf(childID, parentID); err != nil {
		return nil, err
	}
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	r := &Relationship{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ChildID:           childID,
		ParentID:          copyID(parentID),
		StartedAt:         startedAt.UTC(),
		IsActive:          true,
		RelationshipType:  relType,
		Notes:             notes,
	}
	r.AddDomainEvent(NewRelationshipCreatedEvent(r))
	return r, nil
}

// Repoint moves the relationship under a new parent. StartedAt is preserved.
func (r *Relationship) Repoint(newParentID *uuid.UUID, notes string) error {
	if r.EndedAt != nil {
		return shared.NewValidationError("relationship %s has ended and cannot be repointed", r.ID)
	}
	if err := checkNotSelf(r.ChildID, newParentID); err != nil {
		return err
	}

	previous := copyID(r.ParentID)
	r.ParentID = copyID(newParentID)
	if notes != "" {
		r.Notes = notes
	}
	r.Touch(time.Now().UTC())
	r.IncrementVersion()
	r.AddDomainEvent(NewRelationshipRepointedEvent(r, previous))
	return nil
}

// End closes the relationship at endedAt, which must be after StartedAt.
func (r *Relationship) End(endedAt time.Time) error {
	if r.EndedAt != nil {
		return shared.NewValidationError("relationship %s has already ended", r.ID)
	}
	if !endedAt.After(r.StartedAt) {
		return shared.NewValidationError("ended_at must be after started_at")
	}

	at := endedAt.UTC()
	r.EndedAt = &at
	r.IsActive = false
	r.Touch(time.Now().UTC())
	r.IncrementVersion()
	r.AddDomainEvent(NewRelationshipEndedEvent(r))
	return nil
}

// IsActiveAt reports whether the edge governs its child at instant t.
func (r *Relationship) IsActiveAt(t time.Time) bool {
	if !r.IsActive || r.StartedAt.After(t) {
		return false
	}
	return r.EndedAt == nil || !r.EndedAt.Before(t)
}

// HasParent reports whether the relationship points at a parent.
func (r *Relationship) HasParent() bool {
	return r.ParentID != nil && *r.ParentID != uuid.Nil
}

// Validate checks the stored invariants of a relationship row.
func (r *Relationship) Validate() error {
	if err := checkNotSelf(r.ChildID, r.ParentID); err != nil {
		return err
	}
	if r.EndedAt != nil {
		if !r.EndedAt.After(r.StartedAt) {
			return shared.NewValidationError("ended_at must be after started_at")
		}
		if r.IsActive {
			return shared.NewValidationError("an ended relationship cannot be active")
		}
	}
	return nil
}

func checkNotSelf(childID uuid.UUID, parentID *uuid.UUID) error {
	if parentID != nil && *parentID == childID {
		return shared.NewValidationError("an entity cannot be its own parent")
	}
	return nil
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	v := *id
	return &v
}
