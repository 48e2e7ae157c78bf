package network

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RelationshipFilter narrows ListRelationships results
type RelationshipFilter struct {
	ChildID    *uuid.UUID
	ParentID   *uuid.UUID
	ActiveOnly bool
	Limit      int
}

// RelationshipRepository persists relationships.
type RelationshipRepository interface {
	// FindByID returns shared.ErrNotFound when the row does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Relationship, error)
	// FindActiveByChild returns (nil, nil) when the child has no active row
	FindActiveByChild(ctx context.Context, childID uuid.UUID) (*Relationship, error)
	// FindActiveByChildForUpdate locks the active row (if any) for the
	// remainder of the surrounding transaction
	FindActiveByChildForUpdate(ctx context.Context, childID uuid.UUID) (*Relationship, error)
	// FindActiveAt returns the row governing childID at instant t, or (nil, nil)
	FindActiveAt(ctx context.Context, childID uuid.UUID, t time.Time) (*Relationship, error)
	FindActiveChildren(ctx context.Context, parentID uuid.UUID) ([]Relationship, error)
	FindAllActiveEdges(ctx context.Context) ([]Edge, error)
	FindHistoryByChild(ctx context.Context, childID uuid.UUID) ([]Relationship, error)
	List(ctx context.Context, filter RelationshipFilter) ([]Relationship, error)

	// Create inserts a new row. A second active row for the same child
	// yields a shared.ErrConflict.
	Create(ctx context.Context, r *Relationship) error
	// SaveWithLock writes r only if the stored version is r.Version-1
	SaveWithLock(ctx context.Context, r *Relationship) error
	DeleteByID(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteByChild(ctx context.Context, childID uuid.UUID) (int64, error)
}

// EntityStore is the read side of the external profile store.
type EntityStore interface {
	GetEntity(ctx context.Context, id uuid.UUID) (*Entity, error)
	ListEntities(ctx context.Context) ([]Entity, error)
}
