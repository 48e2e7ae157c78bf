package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/shopspring/decimal"
)

// AccumulatorModel is the persistence model for the Accumulator aggregate.
type AccumulatorModel struct {
	AggregateModel
	EntityID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	TotalSold     int64     `gorm:"not null;default:0"`
	TotalReturned int64     `gorm:"not null;default:0"`
	NetSold       int64     `gorm:"not null;default:0;index"`
	CurrentTier   string    `gorm:"type:varchar(10);not null;default:'LOW'"`
	TierChangedAt *time.Time
	LastUpdated   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccumulatorModel) TableName() string {
	return "device_accumulators"
}

// ToDomain converts the persistence model to a domain Accumulator.
func (m *AccumulatorModel) ToDomain() *device.Accumulator {
	return &device.Accumulator{
		BaseAggregateRoot: m.ToAggregateRoot(),
		EntityID:          m.EntityID,
		TotalSold:         m.TotalSold,
		TotalReturned:     m.TotalReturned,
		NetSold:           m.NetSold,
		CurrentTier:       device.Tier(m.CurrentTier),
		TierChangedAt:     m.TierChangedAt,
		LastUpdated:       m.LastUpdated,
	}
}

// FromDomain populates the persistence model from a domain Accumulator.
func (m *AccumulatorModel) FromDomain(a *device.Accumulator) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.EntityID = a.EntityID
	m.TotalSold = a.TotalSold
	m.TotalReturned = a.TotalReturned
	m.NetSold = a.NetSold
	m.CurrentTier = string(a.CurrentTier)
	m.TierChangedAt = a.TierChangedAt
	m.LastUpdated = a.LastUpdated
}

// AccumulatorModelFromDomain creates a new persistence model from a domain Accumulator.
func AccumulatorModelFromDomain(a *device.Accumulator) *AccumulatorModel {
	m := &AccumulatorModel{}
	m.FromDomain(a)
	return m
}

// DeviceSaleModel is the persistence model of the device sales ledger.
type DeviceSaleModel struct {
	BaseModel
	ShopID             uuid.UUID       `gorm:"type:uuid;not null;index:idx_device_sales_shop,priority:1"`
	TopLevelEntityID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity           int64           `gorm:"not null"`
	SaleDate           time.Time       `gorm:"not null;index:idx_device_sales_shop,priority:2"`
	DeviceName         string          `gorm:"type:varchar(200);not null"`
	SerialNumbers      []string        `gorm:"type:text;serializer:json"`
	TierAtSale         string          `gorm:"type:varchar(10);not null"`
	StandardCommission decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ActualCommission   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Notes              string          `gorm:"type:text"`
	CreatedBy          *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (DeviceSaleModel) TableName() string {
	return "device_sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *DeviceSaleModel) ToDomain() *device.Sale {
	return &device.Sale{
		BaseEntity:         m.BaseModel.ToDomain(),
		ShopID:             m.ShopID,
		TopLevelEntityID:   m.TopLevelEntityID,
		Quantity:           m.Quantity,
		SaleDate:           m.SaleDate,
		DeviceName:         m.DeviceName,
		SerialNumbers:      m.SerialNumbers,
		TierAtSale:         device.Tier(m.TierAtSale),
		StandardCommission: m.StandardCommission,
		ActualCommission:   m.ActualCommission,
		Notes:              m.Notes,
		CreatedBy:          m.CreatedBy,
	}
}

// DeviceSaleModelFromDomain creates a new persistence model from a domain Sale.
func DeviceSaleModelFromDomain(s *device.Sale) *DeviceSaleModel {
	m := &DeviceSaleModel{
		ShopID:             s.ShopID,
		TopLevelEntityID:   s.TopLevelEntityID,
		Quantity:           s.Quantity,
		SaleDate:           s.SaleDate,
		DeviceName:         s.DeviceName,
		SerialNumbers:      s.SerialNumbers,
		TierAtSale:         string(s.TierAtSale),
		StandardCommission: s.StandardCommission,
		ActualCommission:   s.ActualCommission,
		Notes:              s.Notes,
		CreatedBy:          s.CreatedBy,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
