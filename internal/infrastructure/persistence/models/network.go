package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/network"
	"github.com/kolnet/backend/internal/domain/shared"
)

// ProfileModel is the persistence model of the entity store.
type ProfileModel struct {
	BaseModel
	Name       string     `gorm:"type:varchar(200);not null"`
	Role       string     `gorm:"type:varchar(20);not null"`
	Status     string     `gorm:"type:varchar(20);not null;default:'pending'"`
	ApprovedBy *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ProfileModel) TableName() string {
	return "profiles"
}

// ToDomain converts the persistence model to the read-only domain Entity.
func (m *ProfileModel) ToDomain() network.Entity {
	return network.Entity{
		ID:     m.ID,
		Name:   m.Name,
		Role:   shared.Role(m.Role),
		Status: network.EntityStatus(m.Status),
	}
}

// RelationshipModel is the persistence model for the Relationship aggregate.
// At most one active row per child is enforced by a partial unique index.
type RelationshipModel struct {
	AggregateModel
	ChildID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_rel_child;uniqueIndex:uq_relationship_active_child,where:is_active = true"`
	ParentID         *uuid.UUID `gorm:"type:uuid;index:idx_rel_parent;index:idx_rel_parent_active,priority:1"`
	StartedAt        time.Time  `gorm:"not null"`
	EndedAt          *time.Time
	IsActive         bool       `gorm:"not null;default:true;index:idx_rel_parent_active,priority:2"`
	RelationshipType string     `gorm:"type:varchar(20);not null;default:'direct'"`
	Notes            string     `gorm:"type:text"`
	CreatedBy        *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (RelationshipModel) TableName() string {
	return "shop_relationships"
}

// ToDomain converts the persistence model to a domain Relationship.
func (m *RelationshipModel) ToDomain() *network.Relationship {
	return &network.Relationship{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ChildID:           m.ChildID,
		ParentID:          m.ParentID,
		StartedAt:         m.StartedAt,
		EndedAt:           m.EndedAt,
		IsActive:          m.IsActive,
		RelationshipType:  network.RelationshipType(m.RelationshipType),
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain Relationship.
func (m *RelationshipModel) FromDomain(r *network.Relationship) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ChildID = r.ChildID
	m.ParentID = r.ParentID
	m.StartedAt = r.StartedAt
	m.EndedAt = r.EndedAt
	m.IsActive = r.IsActive
	m.RelationshipType = string(r.RelationshipType)
	m.Notes = r.Notes
	m.CreatedBy = r.CreatedBy
}

// RelationshipModelFromDomain creates a new persistence model from a domain Relationship.
func RelationshipModelFromDomain(r *network.Relationship) *RelationshipModel {
	m := &RelationshipModel{}
	m.FromDomain(r)
	return m
}
