package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Quote is the priced commission of one transaction.
type Quote struct {
	ChildID          uuid.UUID       `json:"child_id"`
	TopLevelEntityID uuid.UUID       `json:"top_level_entity_id"`
	Tier             device.Tier     `json:"tier"`
	Rate             decimal.Decimal `json:"rate"`
	BaseAmount       decimal.Decimal `json:"base_amount"`
	Amount           decimal.Decimal `json:"amount"`
}

// NewQuote prices baseAmount at the rate for tier.
func NewQuote(childID, topLevelID uuid.UUID, tier device.Tier, rates RateTable, baseAmount decimal.Decimal) (Quote, error) {
	if baseAmount.IsNegative() {
		return Quote{}, shared.NewValidationError("base amount cannot be negative")
	}
	rate := rates.RateFor(tier)
	return Quote{
		ChildID:          childID,
		TopLevelEntityID: topLevelID,
		Tier:             tier,
		Rate:             rate,
		BaseAmount:       baseAmount,
		Amount:           baseAmount.Mul(rate).Round(2),
	}, nil
}

// SourceType identifies what a ledger entry was priced from
type SourceType string

const (
	SourceTypeOrder      SourceType = "ORDER"
	SourceTypeDeviceSale SourceType = "DEVICE_SALE"
	SourceTypeManual     SourceType = "MANUAL"
)

// IsValid returns true if the source type is known
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeOrder, SourceTypeDeviceSale, SourceTypeManual:
		return true
	}
	return false
}

// Entry is an immutable commission ledger row credited to a top-level entity.
type Entry struct {
	shared.BaseEntity
	EntityID   uuid.UUID
	ChildID    uuid.UUID
	SourceType SourceType
	SourceID   *uuid.UUID
	Tier       device.Tier
	Rate       decimal.Decimal
	BaseAmount decimal.Decimal
	Amount     decimal.Decimal
	CreatedBy  *uuid.UUID
	RecordedAt time.Time
}

// NewEntry turns a quote into a ledger row.
func NewEntry(q Quote, sourceType SourceType, sourceID *uuid.UUID, actor shared.Actor) (*Entry, error) {
	if !sourceType.IsValid() {
		return nil, shared.NewValidationError("invalid source type %q", sourceType)
	}
	e := &Entry{
		BaseEntity: shared.NewBaseEntity(),
		EntityID:   q.TopLevelEntityID,
		ChildID:    q.ChildID,
		SourceType: sourceType,
		SourceID:   sourceID,
		Tier:       q.Tier,
		Rate:       q.Rate,
		BaseAmount: q.BaseAmount,
		Amount:     q.Amount,
	}
	if actor.ID != uuid.Nil {
		id := actor.ID
		e.CreatedBy = &id
	}
	e.RecordedAt = e.CreatedAt
	return e, nil
}
