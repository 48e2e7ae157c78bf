package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/commission"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/shopspring/decimal"
)

// PriceRequest asks for the commission on an amount sold under ChildID
type PriceRequest struct {
	ChildID    uuid.UUID       `json:"child_id" binding:"required"`
	BaseAmount decimal.Decimal `json:"base_amount"`
}

// ApplyCommissionRequest prices an amount and writes it to the ledger
type ApplyCommissionRequest struct {
	ChildID    uuid.UUID       `json:"child_id" binding:"required"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	SourceType string          `json:"source_type" binding:"required,oneof=ORDER DEVICE_SALE MANUAL"`
	SourceID   *uuid.UUID      `json:"source_id"`
}

// EntryResponse is the API view of a commission ledger row
type EntryResponse struct {
	ID         uuid.UUID       `json:"id"`
	EntityID   uuid.UUID       `json:"entity_id"`
	ChildID    uuid.UUID       `json:"child_id"`
	SourceType string          `json:"source_type"`
	SourceID   *uuid.UUID      `json:"source_id,omitempty"`
	Tier       string          `json:"tier"`
	Rate       decimal.Decimal `json:"rate"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedBy  *uuid.UUID      `json:"created_by,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// ToEntryResponse converts a ledger row
func ToEntryResponse(e *commission.Entry) EntryResponse {
	return EntryResponse{
		ID:         e.ID,
		EntityID:   e.EntityID,
		ChildID:    e.ChildID,
		SourceType: string(e.SourceType),
		SourceID:   e.SourceID,
		Tier:       e.Tier.String(),
		Rate:       e.Rate,
		BaseAmount: e.BaseAmount,
		Amount:     e.Amount,
		CreatedBy:  e.CreatedBy,
		RecordedAt: e.RecordedAt,
	}
}

// DeviceSaleRequest records a device sale (positive Quantity) or return
// (negative Quantity) made by a shop
type DeviceSaleRequest struct {
	ShopID        uuid.UUID  `json:"shop_id" binding:"required"`
	Quantity      int64      `json:"quantity" binding:"required,ne=0"`
	SaleDate      *time.Time `json:"sale_date"`
	DeviceName    string     `json:"device_name" binding:"max=200"`
	SerialNumbers []string   `json:"serial_numbers" binding:"omitempty,dive,max=100"`
	// ActualCommission overrides the standard commission. It is checked
	// against the tolerance band but never rejected.
	ActualCommission *decimal.Decimal `json:"actual_commission"`
	Notes            string           `json:"notes" binding:"max=1000"`
}

// DeviceSaleResponse is the recorded ledger row with the resulting
// accumulator state
type DeviceSaleResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ShopID             uuid.UUID       `json:"shop_id"`
	TopLevelEntityID   uuid.UUID       `json:"top_level_entity_id"`
	Quantity           int64           `json:"quantity"`
	SaleDate           time.Time       `json:"sale_date"`
	DeviceName         string          `json:"device_name"`
	SerialNumbers      []string        `json:"serial_numbers"`
	TierAtSale         string          `json:"tier_at_sale"`
	StandardCommission decimal.Decimal `json:"standard_commission"`
	ActualCommission   decimal.Decimal `json:"actual_commission"`
	WithinTolerance    bool            `json:"within_tolerance"`
	Accumulator        device.Stats    `json:"accumulator"`
}

func toDeviceSaleResponse(s *device.Sale, within bool, stats device.Stats) DeviceSaleResponse {
	serials := s.SerialNumbers
	if serials == nil {
		serials = []string{}
	}
	return DeviceSaleResponse{
		ID:                 s.ID,
		ShopID:             s.ShopID,
		TopLevelEntityID:   s.TopLevelEntityID,
		Quantity:           s.Quantity,
		SaleDate:           s.SaleDate,
		DeviceName:         s.DeviceName,
		SerialNumbers:      serials,
		TierAtSale:         s.TierAtSale.String(),
		StandardCommission: s.StandardCommission,
		ActualCommission:   s.ActualCommission,
		WithinTolerance:    within,
		Accumulator:        stats,
	}
}

// DeviceStatisticsResponse summarizes the device sales ledger over a date
// range
type DeviceStatisticsResponse struct {
	From            *time.Time      `json:"from,omitempty"`
	To              *time.Time      `json:"to,omitempty"`
	TotalSold       int64           `json:"total_sold"`
	TotalReturned   int64           `json:"total_returned"`
	NetDevices      int64           `json:"net_devices"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	Shops           int64           `json:"shops"`
	AveragePerShop  decimal.Decimal `json:"average_per_shop"`
	TopPerformers   []device.Stats  `json:"top_performers"`
}

func toDeviceStatisticsResponse(sum device.SaleSummary, from, to *time.Time) *DeviceStatisticsResponse {
	net := sum.TotalSold - sum.TotalReturned
	avg := decimal.Zero
	if sum.Shops > 0 {
		avg = decimal.NewFromInt(net).DivRound(decimal.NewFromInt(sum.Shops), 2)
	}
	return &DeviceStatisticsResponse{
		From:            from,
		To:              to,
		TotalSold:       sum.TotalSold,
		TotalReturned:   sum.TotalReturned,
		NetDevices:      net,
		TotalCommission: sum.TotalCommission,
		Shops:           sum.Shops,
		AveragePerShop:  avg,
		TopPerformers:   []device.Stats{},
	}
}
