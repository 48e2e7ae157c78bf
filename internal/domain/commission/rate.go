package commission

import (
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RateTable holds the configured commission economics per tier.
type RateTable struct {
	LowTierRate  decimal.Decimal
	HighTierRate decimal.Decimal
	// Per-unit commission paid on device sales
	LowTierUnit  decimal.Decimal
	HighTierUnit decimal.Decimal
	// Tolerance is the allowed relative deviation between standard and
	// actual device commission before a warning is raised
	Tolerance decimal.Decimal
}

// DefaultRateTable returns the platform's standard economics.
func DefaultRateTable() RateTable {
	return RateTable{
		LowTierRate:  decimal.NewFromFloat(0.10),
		HighTierRate: decimal.NewFromFloat(0.15),
		LowTierUnit:  decimal.NewFromInt(1_500_000),
		HighTierUnit: decimal.NewFromInt(2_500_000),
		Tolerance:    decimal.NewFromFloat(0.5),
	}
}

// Validate checks the table is usable.
func (r RateTable) Validate() error {
	for name, v := range map[string]decimal.Decimal{
		"low tier rate":  r.LowTierRate,
		"high tier rate": r.HighTierRate,
		"low tier unit":  r.LowTierUnit,
		"high tier unit": r.HighTierUnit,
		"tolerance":      r.Tolerance,
	} {
		if v.IsNegative() {
			return shared.NewValidationError("%s cannot be negative", name)
		}
	}
	if r.LowTierRate.GreaterThan(decimal.NewFromInt(1)) || r.HighTierRate.GreaterThan(decimal.NewFromInt(1)) {
		return shared.NewValidationError("commission rates must be fractions of 1")
	}
	return nil
}

// RateFor returns the percentage rate applied to order amounts.
func (r RateTable) RateFor(tier device.Tier) decimal.Decimal {
	if tier == device.TierHigh {
		return r.HighTierRate
	}
	return r.LowTierRate
}

// UnitCommissionFor returns the per-device commission.
func (r RateTable) UnitCommissionFor(tier device.Tier) decimal.Decimal {
	if tier == device.TierHigh {
		return r.HighTierUnit
	}
	return r.LowTierUnit
}

// DeviceCommission computes the standard (always non-negative) and actual
// (signed, negative for returns) commission for quantity units.
func (r RateTable) DeviceCommission(tier device.Tier, quantity int64) (standard, actual decimal.Decimal) {
	unit := r.UnitCommissionFor(tier)
	q := decimal.NewFromInt(quantity)
	return q.Abs().Mul(unit), q.Mul(unit)
}

// CheckDeviceCommission reports whether actual lies within the tolerance band
// around the expected signed commission. The result is advisory only.
func (r RateTable) CheckDeviceCommission(standard, actual decimal.Decimal, quantity int64) (ok bool, deviation decimal.Decimal) {
	expected := standard
	if quantity < 0 {
		expected = standard.Neg()
	}
	deviation = actual.Sub(expected).Abs()
	return deviation.LessThanOrEqual(standard.Mul(r.Tolerance)), deviation
}
