package device

import (
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/shared"
)

// TierThreshold is the net unit count at which an entity reaches the high tier.
const TierThreshold = 5

// Tier is the commission bracket derived from net device sales
type Tier string

const (
	TierLow  Tier = "LOW"
	TierHigh Tier = "HIGH"
)

// String returns the string representation of Tier
func (t Tier) String() string {
	return string(t)
}

// IsValid returns true if the tier is known
func (t Tier) IsValid() bool {
	return t == TierLow || t == TierHigh
}

// TierFor maps a net unit count to its tier. Exactly TierThreshold qualifies.
func TierFor(netSold int64) Tier {
	if netSold >= TierThreshold {
		return TierHigh
	}
	return TierLow
}

// NetSold is max(0, sold - returned).
func NetSold(totalSold, totalReturned int64) int64 {
	if n := totalSold - totalReturned; n > 0 {
		return n
	}
	return 0
}

// Accumulator is the running device total of one top-level entity.
type Accumulator struct {
	shared.BaseAggregateRoot
	EntityID      uuid.UUID
	TotalSold     int64
	TotalReturned int64
	NetSold       int64
	CurrentTier   Tier
	TierChangedAt *time.Time
	LastUpdated   time.Time
}

// NewAccumulator creates an empty accumulator for entityID.
func NewAccumulator(entityID uuid.UUID) (*Accumulator, error) {
	if entityID == uuid.Nil {
		return nil, shared.NewValidationError("entity ID cannot be empty")
	}
	a := &Accumulator{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EntityID:          entityID,
		CurrentTier:       TierLow,
	}
	a.LastUpdated = a.CreatedAt
	return a, nil
}

// RecordSale adds quantity sold units.
func (a *Accumulator) RecordSale(quantity int64, at time.Time) error {
	if quantity <= 0 {
		return shared.NewValidationError("sale quantity must be positive, got %d", quantity)
	}
	a.TotalSold += quantity
	a.recompute(at)
	return nil
}

// RecordReturn adds quantity returned units. Net never goes below zero.
func (a *Accumulator) RecordReturn(quantity int64, at time.Time) error {
	if quantity <= 0 {
		return shared.NewValidationError("return quantity must be positive, got %d", quantity)
	}
	a.TotalReturned += quantity
	a.recompute(at)
	return nil
}

func (a *Accumulator) recompute(at time.Time) {
	at = at.UTC()
	previous := a.CurrentTier
	a.NetSold = NetSold(a.TotalSold, a.TotalReturned)
	a.CurrentTier = TierFor(a.NetSold)
	if a.CurrentTier != previous {
		a.TierChangedAt = &at
		a.AddDomainEvent(NewTierChangedEvent(a, previous))
	}
	a.LastUpdated = at
	a.Touch(at)
}

// Stats returns the caller-facing snapshot.
func (a *Accumulator) Stats() Stats {
	return Stats{
		EntityID:      a.EntityID,
		TotalSold:     a.TotalSold,
		TotalReturned: a.TotalReturned,
		NetSold:       a.NetSold,
		CurrentTier:   a.CurrentTier,
		TierChangedAt: a.TierChangedAt,
	}
}

// Stats is the read model of an accumulator.
type Stats struct {
	EntityID      uuid.UUID  `json:"entity_id"`
	TotalSold     int64      `json:"total_sold"`
	TotalReturned int64      `json:"total_returned"`
	NetSold       int64      `json:"net_sold"`
	CurrentTier   Tier       `json:"current_tier"`
	TierChangedAt *time.Time `json:"tier_changed_at,omitempty"`
}

// ZeroStats is the snapshot of an entity that has never sold a device.
func ZeroStats(entityID uuid.UUID) Stats {
	return Stats{EntityID: entityID, CurrentTier: TierLow}
}

// Simulation projects the tier after additional sales.
type Simulation struct {
	EntityID         uuid.UUID `json:"entity_id"`
	CurrentNetSold   int64     `json:"current_net_sold"`
	ProjectedNetSold int64     `json:"projected_net_sold"`
	CurrentTier      Tier      `json:"current_tier"`
	ProjectedTier    Tier      `json:"projected_tier"`
	TierChanges      bool      `json:"tier_changes"`
	// UnitsToNextTier is zero once the entity is at the high tier.
	UnitsToNextTier int64 `json:"units_to_next_tier"`
}

// Simulate projects stats forward by additional units (negative for returns).
func Simulate(current Stats, additional int64) Simulation {
	sold, returned := current.TotalSold, current.TotalReturned
	if additional >= 0 {
		sold += additional
	} else {
		returned -= additional
	}
	projected := NetSold(sold, returned)

	sim := Simulation{
		EntityID:         current.EntityID,
		CurrentNetSold:   current.NetSold,
		ProjectedNetSold: projected,
		CurrentTier:      TierFor(current.NetSold),
		ProjectedTier:    TierFor(projected),
	}
	sim.TierChanges = sim.CurrentTier != sim.ProjectedTier
	if sim.ProjectedTier == TierLow {
		sim.UnitsToNextTier = TierThreshold - projected
	}
	return sim
}
