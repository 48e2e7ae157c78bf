package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/commission"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/shopspring/decimal"
)

// CommissionEntryModel is the persistence model of the commission ledger.
type CommissionEntryModel struct {
	BaseModel
	EntityID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_commission_entity,priority:1"`
	ChildID    uuid.UUID       `gorm:"type:uuid;not null"`
	SourceType string          `gorm:"type:varchar(20);not null"`
	SourceID   *uuid.UUID      `gorm:"type:uuid"`
	Tier       string          `gorm:"type:varchar(10);not null"`
	Rate       decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	BaseAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedBy  *uuid.UUID      `gorm:"type:uuid"`
	RecordedAt time.Time       `gorm:"not null;index:idx_commission_entity,priority:2"`
}

// TableName returns the table name for GORM
func (CommissionEntryModel) TableName() string {
	return "commission_entries"
}

// ToDomain converts the persistence model to a domain Entry.
func (m *CommissionEntryModel) ToDomain() *commission.Entry {
	return &commission.Entry{
		BaseEntity: m.BaseModel.ToDomain(),
		EntityID:   m.EntityID,
		ChildID:    m.ChildID,
		SourceType: commission.SourceType(m.SourceType),
		SourceID:   m.SourceID,
		Tier:       device.Tier(m.Tier),
		Rate:       m.Rate,
		BaseAmount: m.BaseAmount,
		Amount:     m.Amount,
		CreatedBy:  m.CreatedBy,
		RecordedAt: m.RecordedAt,
	}
}

// CommissionEntryModelFromDomain creates a new persistence model from a domain Entry.
func CommissionEntryModelFromDomain(e *commission.Entry) *CommissionEntryModel {
	m := &CommissionEntryModel{
		EntityID:   e.EntityID,
		ChildID:    e.ChildID,
		SourceType: string(e.SourceType),
		SourceID:   e.SourceID,
		Tier:       string(e.Tier),
		Rate:       e.Rate,
		BaseAmount: e.BaseAmount,
		Amount:     e.Amount,
		CreatedBy:  e.CreatedBy,
		RecordedAt: e.RecordedAt,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}
