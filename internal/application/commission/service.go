// Package commission prices transactions against the tier of the entity at
// the top of the seller's relationship chain and keeps the ledgers.
package commission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	devicesvc "github.com/kolnet/backend/internal/application/device"
	"github.com/kolnet/backend/internal/application/transaction"
	"github.com/kolnet/backend/internal/domain/commission"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/domain/network"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/infrastructure/logger"
	"github.com/kolnet/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// DefaultListLimit caps ledger listings when no limit is given
	DefaultListLimit = 100
	// TopPerformersLimit is the number of accumulators in DeviceStatistics
	TopPerformersLimit = 10
)

// Config tunes the service.
type Config struct {
	MaxChainDepth    int
	MaxWriteRetries  int
	OperationTimeout time.Duration
}

// Service is the commission application.
type Service struct {
	scope   transaction.Scope
	reads   transaction.Repositories
	rates   commission.RateTable
	cfg     Config
	logger  *zap.Logger
	metrics *telemetry.NetworkMetrics
}

// NewService creates a Service. reads serves lookups that need no
// transaction.
func NewService(scope transaction.Scope, reads transaction.Repositories, rates commission.RateTable, cfg Config, logger *zap.Logger) (*Service, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxChainDepth <= 0 {
		cfg.MaxChainDepth = 10
	}
	if cfg.MaxWriteRetries < 1 {
		cfg.MaxWriteRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{scope: scope, reads: reads, rates: rates, cfg: cfg, logger: logger}, nil
}

// SetNetworkMetrics sets the metrics collector
func (s *Service) SetNetworkMetrics(m *telemetry.NetworkMetrics) {
	s.metrics = m
}

// Rates returns the configured rate table
func (s *Service) Rates() commission.RateTable {
	return s.rates
}

// PriceTransaction resolves the top-level entity above ChildID, reads its
// tier and prices BaseAmount at that tier's rate. An entity with no active
// parent has no commission path and yields NotFound.
func (s *Service) PriceTransaction(ctx context.Context, actor shared.Actor, req PriceRequest) (*commission.Quote, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "price", telemetry.UUIDAttr("child_id", req.ChildID))
	defer span.End()

	if !actor.Role.IsValid() {
		return nil, shared.NewForbiddenError("unknown role %q", actor.Role)
	}
	quote, err := s.quote(ctx, s.reads, req.ChildID, req.BaseAmount)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("tier", quote.Tier.String()))
	return &quote, nil
}

// ApplyCommission prices the amount and writes a ledger row in one
// transaction.
func (s *Service) ApplyCommission(ctx context.Context, actor shared.Actor, req ApplyCommissionRequest) (resp *EntryResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "apply", telemetry.UUIDAttr("child_id", req.ChildID))
	defer span.End()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	defer s.observe(ctx, "commission.apply", start, &err)

	if err = actor.RequireAdmin("apply commission"); err != nil {
		return nil, err
	}
	sourceType := commission.SourceType(req.SourceType)
	if !sourceType.IsValid() {
		return nil, shared.NewValidationError("invalid source type %q", req.SourceType)
	}

	var entry *commission.Entry
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		quote, err := s.quote(ctx, repos, req.ChildID, req.BaseAmount)
		if err != nil {
			return err
		}
		e, err := commission.NewEntry(quote, sourceType, req.SourceID, actor)
		if err != nil {
			return err
		}
		if err := repos.CommissionEntries().Create(ctx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCommission(ctx, string(entry.SourceType), entry.Tier.String(), entry.Amount)
	}
	logger.L(ctx, s.logger).Info("Commission applied",
		zap.String("entry_id", entry.ID.String()),
		zap.String("entity_id", entry.EntityID.String()),
		zap.String("tier", entry.Tier.String()),
		zap.String("amount", entry.Amount.String()),
	)
	out := ToEntryResponse(entry)
	return &out, nil
}

// ListEntries returns the ledger rows credited to entityID, newest first
func (s *Service) ListEntries(ctx context.Context, actor shared.Actor, entityID uuid.UUID, limit int) ([]EntryResponse, error) {
	if !actor.Role.IsValid() {
		return nil, shared.NewForbiddenError("unknown role %q", actor.Role)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	entries, err := s.reads.CommissionEntries().ListByEntity(ctx, entityID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]EntryResponse, len(entries))
	for i := range entries {
		out[i] = ToEntryResponse(&entries[i])
	}
	return out, nil
}

// RecordDeviceSale writes a device ledger row for a shop and applies it to
// the accumulator of the shop's top-level entity, in one transaction. The
// row is priced at the tier before a sale and after a return. An actual
// commission outside the tolerance band is logged, not rejected.
func (s *Service) RecordDeviceSale(ctx context.Context, actor shared.Actor, req DeviceSaleRequest) (resp *DeviceSaleResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "record_device_sale",
		telemetry.UUIDAttr("shop_id", req.ShopID),
		attribute.Int64("quantity", req.Quantity),
	)
	defer span.End()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	defer s.observe(ctx, "commission.record_device_sale", start, &err)

	if err = actor.RequireAdmin("record device sale"); err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		return nil, shared.NewValidationError("quantity cannot be zero")
	}
	saleDate := time.Now().UTC()
	if req.SaleDate != nil {
		saleDate = req.SaleDate.UTC()
	}

	var (
		sale    *device.Sale
		applied *devicesvc.Applied
		within  bool
		dev     decimal.Decimal
	)
	err = transaction.ExecuteWithRetry(ctx, s.scope, s.cfg.MaxWriteRetries, s.onRetry(ctx, req.ShopID),
		func(repos transaction.Repositories) error {
			topLevel, err := s.topLevel(ctx, repos.Relationships(), req.ShopID)
			if err != nil {
				return err
			}
			a, err := devicesvc.ApplyUnits(ctx, repos.Accumulators(), topLevel, req.Quantity, saleDate)
			if err != nil {
				return err
			}

			tier := device.TierAtSale(a.Before, req.Quantity)
			standard, actual := s.rates.DeviceCommission(tier, req.Quantity)
			if req.ActualCommission != nil {
				actual = *req.ActualCommission
			}
			within, dev = s.rates.CheckDeviceCommission(standard, actual, req.Quantity)

			row := &device.Sale{
				BaseEntity:         shared.NewBaseEntity(),
				ShopID:             req.ShopID,
				TopLevelEntityID:   topLevel,
				Quantity:           req.Quantity,
				SaleDate:           saleDate,
				DeviceName:         req.DeviceName,
				SerialNumbers:      req.SerialNumbers,
				TierAtSale:         tier,
				StandardCommission: standard,
				ActualCommission:   actual,
				Notes:              req.Notes,
			}
			if actor.ID != uuid.Nil {
				by := actor.ID
				row.CreatedBy = &by
			}
			if err := repos.DeviceSales().Create(ctx, row); err != nil {
				return err
			}
			sale, applied = row, a
			return nil
		})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	log := logger.L(ctx, s.logger)
	if !within {
		log.Warn("Device commission outside tolerance band",
			zap.String("sale_id", sale.ID.String()),
			zap.String("standard", sale.StandardCommission.String()),
			zap.String("actual", sale.ActualCommission.String()),
			zap.String("deviation", dev.String()),
		)
		if s.metrics != nil {
			s.metrics.RecordCommissionOutOfBand(ctx, sale.TierAtSale.String())
		}
	}
	if s.metrics != nil {
		s.metrics.RecordCommission(ctx, string(commission.SourceTypeDeviceSale), sale.TierAtSale.String(), sale.ActualCommission)
	}
	log.Info("Device sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("shop_id", sale.ShopID.String()),
		zap.String("top_level_entity_id", sale.TopLevelEntityID.String()),
		zap.Int64("quantity", sale.Quantity),
		zap.String("tier_at_sale", sale.TierAtSale.String()),
	)
	devicesvc.DrainTierEvents(ctx, applied.Accumulator, s.logger, s.metrics)

	out := toDeviceSaleResponse(sale, within, applied.After)
	return &out, nil
}

// ListDeviceSales returns ledger rows matching filter, newest first. Every
// field of filter is optional.
func (s *Service) ListDeviceSales(ctx context.Context, actor shared.Actor, filter device.SaleFilter) ([]DeviceSaleResponse, error) {
	if !actor.Role.IsValid() {
		return nil, shared.NewForbiddenError("unknown role %q", actor.Role)
	}
	if err := checkRange(filter.From, filter.To); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	sales, err := s.reads.DeviceSales().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]DeviceSaleResponse, len(sales))
	for i := range sales {
		sale := &sales[i]
		within, _ := s.rates.CheckDeviceCommission(sale.StandardCommission, sale.ActualCommission, sale.Quantity)
		out[i] = toDeviceSaleResponse(sale, within, device.Stats{EntityID: sale.TopLevelEntityID})
	}
	return out, nil
}

// DeviceStatistics summarizes the ledger between from and to (both optional,
// inclusive) and lists the accumulators with the most net units.
func (s *Service) DeviceStatistics(ctx context.Context, actor shared.Actor, from, to *time.Time) (*DeviceStatisticsResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "device_statistics")
	defer span.End()

	if !actor.Role.IsValid() {
		return nil, shared.NewForbiddenError("unknown role %q", actor.Role)
	}
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	summary, err := s.reads.DeviceSales().Summarize(ctx, device.SaleFilter{From: from, To: to})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	top, err := s.reads.Accumulators().ListTop(ctx, TopPerformersLimit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := toDeviceStatisticsResponse(summary, from, to)
	for i := range top {
		resp.TopPerformers = append(resp.TopPerformers, top[i].Stats())
	}
	span.SetAttributes(attribute.Int64("sales.shops", summary.Shops))
	return resp, nil
}

func checkRange(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return shared.NewValidationError("end of range must not be before its start")
	}
	return nil
}

func (s *Service) quote(ctx context.Context, repos transaction.Repositories, childID uuid.UUID, baseAmount decimal.Decimal) (commission.Quote, error) {
	topLevel, err := s.topLevel(ctx, repos.Relationships(), childID)
	if err != nil {
		return commission.Quote{}, err
	}
	tier := device.TierLow
	acc, err := repos.Accumulators().FindByEntity(ctx, topLevel)
	switch {
	case err == nil:
		tier = acc.CurrentTier
	case !errors.Is(err, shared.ErrNotFound):
		return commission.Quote{}, err
	}
	return commission.NewQuote(childID, topLevel, tier, s.rates, baseAmount)
}

// topLevel is the last ancestor on childID's active chain.
func (s *Service) topLevel(ctx context.Context, rels network.RelationshipRepository, childID uuid.UUID) (uuid.UUID, error) {
	chain, err := network.WalkParentChain(ctx, childID, s.cfg.MaxChainDepth, network.ActiveParentLookup(rels))
	if err != nil {
		return uuid.Nil, err
	}
	if chain.Truncated {
		logger.L(ctx, s.logger).Warn("Parent chain stopped at safety limit",
			zap.String("child_id", childID.String()),
			zap.Int("depth", len(chain.Ancestors)),
		)
		if s.metrics != nil {
			s.metrics.RecordTraversalTruncated(ctx, "commission_chain")
		}
	}
	top, ok := chain.TopLevel()
	if !ok {
		return uuid.Nil, shared.NewNotFoundError("entity %s has no active relationship chain", childID)
	}
	return top, nil
}

func (s *Service) onRetry(ctx context.Context, shopID uuid.UUID) func(int, error) {
	return func(attempt int, err error) {
		logger.L(ctx, s.logger).Warn("Retrying device sale after conflict",
			zap.String("shop_id", shopID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.RecordWriteRetry(ctx, "record_device_sale")
		}
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.OperationTimeout)
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err *error) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(ctx, op, start, *err)
	}
}
