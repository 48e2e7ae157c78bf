package network

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRelationship(t *testing.T) {
	child := uuid.New()
	parent := uuid.New()
	started := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("creates active relationship", func(t *testing.T) {
		r, err := NewRelationship(child, &parent, started, "", "recruited at expo")
		require.NoError(t, err)

		assert.True(t, r.IsActive)
		assert.Nil(t, r.EndedAt)
		assert.Equal(t, RelationshipTypeDirect, r.RelationshipType)
		assert.Equal(t, parent, *r.ParentID)
		assert.Equal(t, 1, r.GetVersion())
		require.Len(t, r.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeRelationshipCreated, r.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects self reference", func(t *testing.T) {
		_, err := NewRelationship(child, &child, started, RelationshipTypeDirect, "")
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewRelationship(child, &parent, started, RelationshipType("cousin"), "")
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("nil parent is allowed", func(t *testing.T) {
		r, err := NewRelationship(child, nil, started, RelationshipTypeDirect, "")
		require.NoError(t, err)
		assert.False(t, r.HasParent())
	})

	t.Run("parent pointer is copied", func(t *testing.T) {
		p := uuid.New()
		r, err := NewRelationship(child, &p, started, RelationshipTypeDirect, "")
		require.NoError(t, err)
		p = uuid.New()
		assert.NotEqual(t, p, *r.ParentID)
	})
}

func TestRelationship_Repoint(t *testing.T) {
	child := uuid.New()
	started := time.Now().Add(-time.Hour)
	r, err := NewRelationship(child, nil, started, RelationshipTypeDirect, "")
	require.NoError(t, err)
	r.ClearDomainEvents()

	newParent := uuid.New()
	require.NoError(t, r.Repoint(&newParent, "moved"))
	assert.Equal(t, newParent, *r.ParentID)
	assert.Equal(t, started.UTC(), r.StartedAt)
	assert.Equal(t, 2, r.GetVersion())
	assert.Equal(t, "moved", r.Notes)

	err = r.Repoint(&child, "")
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestRelationship_End(t *testing.T) {
	started := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	parent := uuid.New()

	t.Run("ends after start", func(t *testing.T) {
		r, _ := NewRelationship(uuid.New(), &parent, started, RelationshipTypeDirect, "")
		require.NoError(t, r.End(started.Add(24*time.Hour)))
		assert.False(t, r.IsActive)
		require.NotNil(t, r.EndedAt)
		assert.NoError(t, r.Validate())
	})

	t.Run("rejects end equal to start", func(t *testing.T) {
		r, _ := NewRelationship(uuid.New(), &parent, started, RelationshipTypeDirect, "")
		err := r.End(started)
		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.True(t, r.IsActive)
	})

	t.Run("rejects second end", func(t *testing.T) {
		r, _ := NewRelationship(uuid.New(), &parent, started, RelationshipTypeDirect, "")
		require.NoError(t, r.End(started.Add(time.Hour)))
		assert.Error(t, r.End(started.Add(2*time.Hour)))
	})

	t.Run("ended relationship cannot be repointed", func(t *testing.T) {
		r, _ := NewRelationship(uuid.New(), &parent, started, RelationshipTypeDirect, "")
		require.NoError(t, r.End(started.Add(time.Hour)))
		other := uuid.New()
		assert.Error(t, r.Repoint(&other, ""))
	})
}

func TestRelationship_IsActiveAt(t *testing.T) {
	started := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ended := started.Add(48 * time.Hour)
	parent := uuid.New()

	open, _ := NewRelationship(uuid.New(), &parent, started, RelationshipTypeDirect, "")
	assert.False(t, open.IsActiveAt(started.Add(-time.Second)))
	assert.True(t, open.IsActiveAt(started))
	assert.True(t, open.IsActiveAt(started.Add(1000*time.Hour)))

	// An ended row is inactive regardless of the window.
	closed, _ := NewRelationship(uuid.New(), &parent, started, RelationshipTypeDirect, "")
	require.NoError(t, closed.End(ended))
	assert.False(t, closed.IsActiveAt(started.Add(time.Hour)))
}

func TestRelationship_Validate(t *testing.T) {
	started := time.Now()
	ended := started.Add(time.Hour)
	r := &Relationship{ChildID: uuid.New(), StartedAt: started, EndedAt: &ended, IsActive: true}
	assert.Error(t, r.Validate())

	r.IsActive = false
	assert.NoError(t, r.Validate())

	before := started.Add(-time.Hour)
	r.EndedAt = &before
	assert.Error(t, r.Validate())
}
