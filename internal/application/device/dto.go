package device

import (
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/shopspring/decimal"
)

// RecordUnitsRequest carries a sale or return quantity
type RecordUnitsRequest struct {
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
	Reason   string `json:"reason" binding:"max=500"`
}

// UnitsResult is the accumulator state after a sale or return
type UnitsResult struct {
	device.Stats
	PreviousTier device.Tier `json:"previous_tier"`
	TierChanged  bool        `json:"tier_changed"`
}

// SimulationResponse projects the tier and per-unit commission after
// additional units
type SimulationResponse struct {
	device.Simulation
	CurrentUnitCommission   decimal.Decimal `json:"current_unit_commission"`
	ProjectedUnitCommission decimal.Decimal `json:"projected_unit_commission"`
	UnitCommissionDelta     decimal.Decimal `json:"unit_commission_delta"`
}
