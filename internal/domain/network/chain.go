package network

import (
	"context"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/shared"
)

// ParentLookup returns the active parent of childID, or nil when it has none.
type ParentLookup func(ctx context.Context, childID uuid.UUID) (*uuid.UUID, error)

// ChainResult is the ancestor list, nearest first.
type ChainResult struct {
	Ancestors []uuid.UUID
	// Truncated is set when the depth cap or a revisited node stopped the walk.
	Truncated bool
}

// WalkParentChain follows active parent edges upward from childID.
// The walk stops quietly at maxDepth or at the first repeated node and
// returns whatever it collected so far.
func WalkParentChain(ctx context.Context, childID uuid.UUID, maxDepth int, lookup ParentLookup) (ChainResult, error) {
	result := ChainResult{Ancestors: []uuid.UUID{}}
	visited := map[uuid.UUID]bool{childID: true}
	current := childID

	for depth := 0; ; depth++ {
		if depth >= maxDepth {
			result.Truncated = true
			return result, nil
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		parent, err := lookup(ctx, current)
		if err != nil {
			return result, err
		}
		if parent == nil {
			return result, nil
		}
		if visited[*parent] {
			result.Truncated = true
			return result, nil
		}
		visited[*parent] = true
		result.Ancestors = append(result.Ancestors, *parent)
		current = *parent
	}
}

// TopLevel returns the last ancestor in the chain.
func (c ChainResult) TopLevel() (uuid.UUID, bool) {
	if len(c.Ancestors) == 0 {
		return uuid.Nil, false
	}
	return c.Ancestors[len(c.Ancestors)-1], true
}

// Contains reports whether id appears in the chain.
func (c ChainResult) Contains(id uuid.UUID) bool {
	for _, a := range c.Ancestors {
		if a == id {
			return true
		}
	}
	return false
}

// ActiveParentLookup resolves parents through the active relationship of each child.
func ActiveParentLookup(repo RelationshipRepository) ParentLookup {
	return func(ctx context.Context, childID uuid.UUID) (*uuid.UUID, error) {
		rel, err := repo.FindActiveByChild(ctx, childID)
		if err != nil || rel == nil || !rel.HasParent() {
			return nil, err
		}
		return copyID(rel.ParentID), nil
	}
}

// CheckNoCycle rejects attaching childID under parentID when childID already
// sits above parentID.
func CheckNoCycle(ctx context.Context, childID uuid.UUID, parentID *uuid.UUID, maxDepth int, lookup ParentLookup) error {
	if err := checkNotSelf(childID, parentID); err != nil || parentID == nil {
		return err
	}
	chain, err := WalkParentChain(ctx, *parentID, maxDepth, lookup)
	if err != nil {
		return err
	}
	if chain.Contains(childID) {
		return shared.NewValidationError("attaching %s under %s would create a cycle", childID, *parentID)
	}
	return nil
}
