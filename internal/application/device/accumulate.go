package device

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/infrastructure/logger"
	"github.com/kolnet/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Applied is the outcome of one accumulator write.
type Applied struct {
	Accumulator *device.Accumulator
	Before      device.Stats
	After       device.Stats
	Created     bool
}

// ApplyUnits row-locks entityID's accumulator and adds quantity units
// (negative for returns). It must run inside a transaction. A missing
// accumulator is created; losing the creation race or the version check
// yields shared.ErrConflict so the caller can retry the whole transaction.
func ApplyUnits(ctx context.Context, repo device.AccumulatorRepository, entityID uuid.UUID, quantity int64, at time.Time) (*Applied, error) {
	if quantity == 0 {
		return nil, shared.NewValidationError("quantity cannot be zero")
	}

	acc, err := repo.FindByEntityForUpdate(ctx, entityID)
	created := false
	switch {
	case errors.Is(err, shared.ErrNotFound):
		acc, err = device.NewAccumulator(entityID)
		if err != nil {
			return nil, err
		}
		created = true
	case err != nil:
		return nil, err
	}

	applied := &Applied{Accumulator: acc, Before: acc.Stats(), Created: created}
	if quantity > 0 {
		err = acc.RecordSale(quantity, at)
	} else {
		err = acc.RecordReturn(-quantity, at)
	}
	if err != nil {
		return nil, err
	}

	if created {
		err = repo.Create(ctx, acc)
	} else {
		acc.IncrementVersion()
		err = repo.SaveWithLock(ctx, acc)
	}
	if err != nil {
		return nil, err
	}
	applied.After = acc.Stats()
	return applied, nil
}

// DrainTierEvents logs and counts the tier changes raised by acc and clears
// them. Call it only after the transaction committed.
func DrainTierEvents(ctx context.Context, acc *device.Accumulator, base *zap.Logger, metrics *telemetry.NetworkMetrics) {
	if acc == nil {
		return
	}
	log := logger.L(ctx, base)
	for _, ev := range acc.GetDomainEvents() {
		change, ok := ev.(*device.TierChangedEvent)
		if !ok {
			continue
		}
		log.Info("Device tier changed",
			zap.String("entity_id", change.EntityID),
			zap.String("from", change.From.String()),
			zap.String("to", change.To.String()),
			zap.Int64("net_sold", change.NetSold),
		)
		if metrics != nil {
			metrics.RecordTierChange(ctx, change.To.String(), change.IsPromotion())
		}
	}
	acc.ClearDomainEvents()
}
