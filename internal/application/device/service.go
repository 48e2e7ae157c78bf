// Package device maintains the per top-level entity device accumulators
// that drive commission tiers.
package device

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/application/transaction"
	"github.com/kolnet/backend/internal/domain/commission"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/infrastructure/logger"
	"github.com/kolnet/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultListLimit caps ListAccumulators when no limit is given
const DefaultListLimit = 20

// Config tunes accumulator writes.
type Config struct {
	// MaxWriteRetries is how many times a sale or return is attempted when
	// it loses a concurrent-update race
	MaxWriteRetries  int
	OperationTimeout time.Duration
}

// Service records device sales and returns against accumulators.
type Service struct {
	scope   transaction.Scope
	repo    device.AccumulatorRepository
	rates   commission.RateTable
	cfg     Config
	logger  *zap.Logger
	metrics *telemetry.NetworkMetrics
}

// NewService creates a Service
func NewService(scope transaction.Scope, repo device.AccumulatorRepository, rates commission.RateTable, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxWriteRetries < 1 {
		cfg.MaxWriteRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{scope: scope, repo: repo, rates: rates, cfg: cfg, logger: logger}
}

// SetNetworkMetrics sets the metrics collector
func (s *Service) SetNetworkMetrics(m *telemetry.NetworkMetrics) {
	s.metrics = m
}

// RecordSale adds quantity sold units to entityID's accumulator, creating
// it on first sale.
func (s *Service) RecordSale(ctx context.Context, actor shared.Actor, entityID uuid.UUID, req RecordUnitsRequest) (*UnitsResult, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewValidationError("sale quantity must be positive, got %d", req.Quantity)
	}
	return s.record(ctx, actor, "record_sale", entityID, req.Quantity, req.Reason)
}

// RecordReturn adds quantity returned units. Net sold is clamped at zero
// and the tier may drop.
func (s *Service) RecordReturn(ctx context.Context, actor shared.Actor, entityID uuid.UUID, req RecordUnitsRequest) (*UnitsResult, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewValidationError("return quantity must be positive, got %d", req.Quantity)
	}
	return s.record(ctx, actor, "record_return", entityID, -req.Quantity, req.Reason)
}

func (s *Service) record(ctx context.Context, actor shared.Actor, op string, entityID uuid.UUID, quantity int64, reason string) (result *UnitsResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "device", op,
		telemetry.UUIDAttr("entity_id", entityID),
		attribute.Int64("quantity", quantity),
	)
	defer span.End()
	if s.cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.OperationTimeout)
		defer cancel()
	}
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveOperation(ctx, "device."+op, start, err)
		}
	}()

	if err = actor.RequireAdmin(op); err != nil {
		return nil, err
	}

	var applied *Applied
	err = transaction.ExecuteWithRetry(ctx, s.scope, s.cfg.MaxWriteRetries, s.onRetry(ctx, op, entityID),
		func(repos transaction.Repositories) error {
			a, err := ApplyUnits(ctx, repos.Accumulators(), entityID, quantity, time.Now())
			applied = a
			return err
		})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.L(ctx, s.logger).Info("Device units recorded",
		zap.String("entity_id", entityID.String()),
		zap.Int64("quantity", quantity),
		zap.Int64("net_sold", applied.After.NetSold),
		zap.String("reason", reason),
	)
	DrainTierEvents(ctx, applied.Accumulator, s.logger, s.metrics)

	return &UnitsResult{
		Stats:        applied.After,
		PreviousTier: applied.Before.CurrentTier,
		TierChanged:  applied.Before.CurrentTier != applied.After.CurrentTier,
	}, nil
}

func (s *Service) onRetry(ctx context.Context, op string, entityID uuid.UUID) func(int, error) {
	return func(attempt int, err error) {
		logger.L(ctx, s.logger).Warn("Retrying accumulator write after conflict",
			zap.String("entity_id", entityID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.RecordWriteRetry(ctx, op)
		}
	}
}

// GetStats returns the accumulator snapshot, or zero stats at the low tier
// when the entity has never sold a device.
func (s *Service) GetStats(ctx context.Context, actor shared.Actor, entityID uuid.UUID) (*device.Stats, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "device", "get_stats", telemetry.UUIDAttr("entity_id", entityID))
	defer span.End()

	if !actor.Role.IsValid() {
		return nil, shared.NewForbiddenError("unknown role %q", actor.Role)
	}
	stats, err := currentStats(ctx, s.repo, entityID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &stats, nil
}

// ListAccumulators returns the top accumulators by net units sold.
func (s *Service) ListAccumulators(ctx context.Context, actor shared.Actor, limit int) ([]device.Stats, error) {
	if !actor.Role.IsValid() {
		return nil, shared.NewForbiddenError("unknown role %q", actor.Role)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	accs, err := s.repo.ListTop(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]device.Stats, len(accs))
	for i := range accs {
		out[i] = accs[i].Stats()
	}
	return out, nil
}

// SimulateTierChange projects the tier and per-unit commission after
// additional units (negative for returns) without writing anything.
func (s *Service) SimulateTierChange(ctx context.Context, actor shared.Actor, entityID uuid.UUID, additional int64) (*SimulationResponse, error) {
	if !actor.Role.IsValid() {
		return nil, shared.NewForbiddenError("unknown role %q", actor.Role)
	}
	stats, err := currentStats(ctx, s.repo, entityID)
	if err != nil {
		return nil, err
	}
	sim := device.Simulate(stats, additional)
	current := s.rates.UnitCommissionFor(sim.CurrentTier)
	projected := s.rates.UnitCommissionFor(sim.ProjectedTier)
	return &SimulationResponse{
		Simulation:              sim,
		CurrentUnitCommission:   current,
		ProjectedUnitCommission: projected,
		UnitCommissionDelta:     projected.Sub(current),
	}, nil
}

func currentStats(ctx context.Context, repo device.AccumulatorRepository, entityID uuid.UUID) (device.Stats, error) {
	acc, err := repo.FindByEntity(ctx, entityID)
	if errors.Is(err, shared.ErrNotFound) {
		return device.ZeroStats(entityID), nil
	}
	if err != nil {
		return device.Stats{}, err
	}
	return acc.Stats(), nil
}
