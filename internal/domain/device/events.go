package device

import (
	"github.com/kolnet/backend/internal/domain/shared"
)

// AggregateTypeAccumulator is the aggregate type for accumulator events
const AggregateTypeAccumulator = "DeviceAccumulator"

// EventTypeTierChanged is raised when net sales cross the tier threshold
const EventTypeTierChanged = "DeviceTierChanged"

// TierChangedEvent records a promotion or demotion.
type TierChangedEvent struct {
	shared.BaseDomainEvent
	EntityID string `json:"entity_id"`
	From     Tier   `json:"from"`
	To       Tier   `json:"to"`
	NetSold  int64  `json:"net_sold"`
}

// NewTierChangedEvent builds a TierChangedEvent
func NewTierChangedEvent(a *Accumulator, from Tier) *TierChangedEvent {
	return &TierChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTierChanged, AggregateTypeAccumulator, a.ID),
		EntityID:        a.EntityID.String(),
		From:            from,
		To:              a.CurrentTier,
		NetSold:         a.NetSold,
	}
}

// IsPromotion reports whether the change moved the entity up.
func (e *TierChangedEvent) IsPromotion() bool {
	return e.To == TierHigh
}
