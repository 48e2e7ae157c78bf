package network

import (
	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/shared"
)

// AggregateTypeRelationship is the aggregate type for relationship events
const AggregateTypeRelationship = "Relationship"

// Event types
const (
	EventTypeRelationshipCreated   = "RelationshipCreated"
	EventTypeRelationshipRepointed = "RelationshipRepointed"
	EventTypeRelationshipEnded     = "RelationshipEnded"
)

// RelationshipCreatedEvent is raised when a child is attached.
type RelationshipCreatedEvent struct {
	shared.BaseDomainEvent
	ChildID  uuid.UUID  `json:"child_id"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// NewRelationshipCreatedEvent builds a RelationshipCreatedEvent
func NewRelationshipCreatedEvent(r *Relationship) *RelationshipCreatedEvent {
	return &RelationshipCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRelationshipCreated, AggregateTypeRelationship, r.ID),
		ChildID:         r.ChildID,
		ParentID:        copyID(r.ParentID),
	}
}

// RelationshipRepointedEvent is raised when a child moves to another parent.
type RelationshipRepointedEvent struct {
	shared.BaseDomainEvent
	ChildID        uuid.UUID  `json:"child_id"`
	PreviousParent *uuid.UUID `json:"previous_parent_id,omitempty"`
	NewParent      *uuid.UUID `json:"new_parent_id,omitempty"`
}

// NewRelationshipRepointedEvent builds a RelationshipRepointedEvent
func NewRelationshipRepointedEvent(r *Relationship, previous *uuid.UUID) *RelationshipRepointedEvent {
	return &RelationshipRepointedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRelationshipRepointed, AggregateTypeRelationship, r.ID),
		ChildID:         r.ChildID,
		PreviousParent:  previous,
		NewParent:       copyID(r.ParentID),
	}
}

// RelationshipEndedEvent is raised when a relationship is closed.
type RelationshipEndedEvent struct {
	shared.BaseDomainEvent
	ChildID uuid.UUID `json:"child_id"`
}

// NewRelationshipEndedEvent builds a RelationshipEndedEvent
func NewRelationshipEndedEvent(r *Relationship) *RelationshipEndedEvent {
	return &RelationshipEndedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRelationshipEnded, AggregateTypeRelationship, r.ID),
		ChildID:         r.ChildID,
	}
}
