package device

import (
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Sale is one row of the device sales ledger. Returns carry a negative
// Quantity and a negative ActualCommission.
type Sale struct {
	shared.BaseEntity
	ShopID             uuid.UUID
	TopLevelEntityID   uuid.UUID
	Quantity           int64
	SaleDate           time.Time
	DeviceName         string
	SerialNumbers      []string
	TierAtSale         Tier
	StandardCommission decimal.Decimal
	ActualCommission   decimal.Decimal
	Notes              string
	CreatedBy          *uuid.UUID
}

// IsReturn reports whether the row records returned units.
func (s *Sale) IsReturn() bool {
	return s.Quantity < 0
}

// Units is the absolute unit count.
func (s *Sale) Units() int64 {
	if s.Quantity < 0 {
		return -s.Quantity
	}
	return s.Quantity
}

// TierAtSale is the tier that prices a ledger row: sales use the tier
// before the units are added, returns the tier after they are removed.
func TierAtSale(before Stats, quantity int64) Tier {
	if quantity >= 0 {
		return TierFor(before.NetSold)
	}
	return TierFor(NetSold(before.TotalSold, before.TotalReturned-quantity))
}
