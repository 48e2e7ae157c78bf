package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when NewNetworkMetrics is given no meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// NetworkMetrics tracks hierarchy, tier and ledger activity.
type NetworkMetrics struct {
	logger *zap.Logger

	relationshipOps    *Counter
	tierChanges        *Counter
	cascadeDeletedRows *Counter
	integrityBlocked   *Counter
	traversalTruncated *Counter
	commissionAmount   *FloatCounter
	commissionOutBand  *Counter
	writeRetries       *Counter
	operationDuration  *Histogram

	activeRelationships *Gauge
	highTierEntities    *Gauge

	provider NetworkStatsProvider
	stopChan chan struct{}
	stopOnce sync.Once
	runOnce  sync.Once
}

// NetworkStatsProvider supplies gauge values for periodic collection.
type NetworkStatsProvider interface {
	CountActiveRelationships(ctx context.Context) (int64, error)
	CountHighTierEntities(ctx context.Context) (int64, error)
}

// NewNetworkMetrics registers all network instruments on meter.
func NewNetworkMetrics(meter metric.Meter, logger *zap.Logger) (*NetworkMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &NetworkMetrics{logger: logger, stopChan: make(chan struct{})}

	var err error
	if m.relationshipOps, err = NewCounter(meter, "kolnet_relationship_operations_total",
		"Relationship mutations by operation and outcome", "{operations}"); err != nil {
		return nil, err
	}
	if m.tierChanges, err = NewCounter(meter, "kolnet_device_tier_changes_total",
		"Device tier promotions and demotions", "{changes}"); err != nil {
		return nil, err
	}
	if m.cascadeDeletedRows, err = NewCounter(meter, "kolnet_cascade_deleted_rows_total",
		"Rows removed by cascading deletes", "{rows}"); err != nil {
		return nil, err
	}
	if m.integrityBlocked, err = NewCounter(meter, "kolnet_integrity_blocked_total",
		"Deletes rejected by restrict references", "{deletes}"); err != nil {
		return nil, err
	}
	if m.traversalTruncated, err = NewCounter(meter, "kolnet_traversal_truncated_total",
		"Hierarchy walks cut short by a depth cap or revisited node", "{walks}"); err != nil {
		return nil, err
	}
	if m.commissionAmount, err = NewFloatCounter(meter, "kolnet_commission_amount_total",
		"Commission credited to the ledger", "{currency}"); err != nil {
		return nil, err
	}
	if m.commissionOutBand, err = NewCounter(meter, "kolnet_device_commission_out_of_band_total",
		"Device sales whose actual commission left the tolerance band", "{sales}"); err != nil {
		return nil, err
	}
	if m.writeRetries, err = NewCounter(meter, "kolnet_write_retries_total",
		"Optimistic write retries after a version conflict", "{retries}"); err != nil {
		return nil, err
	}
	if m.operationDuration, err = NewHistogram(meter, "kolnet_operation_duration_seconds",
		"Service operation latency", "s", OperationDurationBuckets); err != nil {
		return nil, err
	}
	if m.activeRelationships, err = NewGauge(meter, "kolnet_active_relationships",
		"Currently active relationships", "{relationships}"); err != nil {
		return nil, err
	}
	if m.highTierEntities, err = NewGauge(meter, "kolnet_high_tier_entities",
		"Entities currently at the high device tier", "{entities}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRelationshipOp counts a relationship mutation.
func (m *NetworkMetrics) RecordRelationshipOp(ctx context.Context, op string, err error) {
	m.relationshipOps.Inc(ctx, AttrOperation.String(op), AttrOutcome.String(outcome(err)))
}

// RecordTierChange counts a tier transition.
func (m *NetworkMetrics) RecordTierChange(ctx context.Context, to string, promotion bool) {
	direction := "demotion"
	if promotion {
		direction = "promotion"
	}
	m.tierChanges.Inc(ctx, AttrTier.String(to), AttrDirection.String(direction))
}

// RecordCascade counts rows removed from table by a cascade.
func (m *NetworkMetrics) RecordCascade(ctx context.Context, table string, rows int64) {
	if rows > 0 {
		m.cascadeDeletedRows.Add(ctx, rows, AttrTable.String(table))
	}
}

// RecordIntegrityBlocked counts a rejected delete.
func (m *NetworkMetrics) RecordIntegrityBlocked(ctx context.Context, table string) {
	m.integrityBlocked.Inc(ctx, AttrTable.String(table))
}

// RecordTraversalTruncated counts a walk stopped by a guard.
func (m *NetworkMetrics) RecordTraversalTruncated(ctx context.Context, op string) {
	m.traversalTruncated.Inc(ctx, AttrOperation.String(op))
}

// RecordCommission adds a credited amount.
func (m *NetworkMetrics) RecordCommission(ctx context.Context, source, tier string, amount decimal.Decimal) {
	f, _ := amount.Float64()
	m.commissionAmount.Add(ctx, f, AttrSource.String(source), AttrTier.String(tier))
}

// RecordCommissionOutOfBand counts an advisory band breach.
func (m *NetworkMetrics) RecordCommissionOutOfBand(ctx context.Context, tier string) {
	m.commissionOutBand.Inc(ctx, AttrTier.String(tier))
}

// RecordWriteRetry counts an optimistic retry.
func (m *NetworkMetrics) RecordWriteRetry(ctx context.Context, op string) {
	m.writeRetries.Inc(ctx, AttrOperation.String(op))
}

// ObserveOperation records the latency of op.
func (m *NetworkMetrics) ObserveOperation(ctx context.Context, op string, start time.Time, err error) {
	m.operationDuration.RecordDuration(ctx, time.Since(start), AttrOperation.String(op), AttrOutcome.String(outcome(err)))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// StartPeriodicCollection samples provider gauges every interval until Stop
// or ctx is done. Calling it more than once has no effect.
func (m *NetworkMetrics) StartPeriodicCollection(ctx context.Context, provider NetworkStatsProvider, interval time.Duration) {
	m.runOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}
		m.provider = provider
		go m.run(ctx, interval)
	})
}

func (m *NetworkMetrics) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.collect(ctx)
	for {
		select {
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx)
		}
	}
}

func (m *NetworkMetrics) collect(ctx context.Context) {
	if m.provider == nil {
		return
	}
	if n, err := m.provider.CountActiveRelationships(ctx); err != nil {
		m.logger.Warn("Failed to count active relationships", zap.Error(err))
	} else {
		m.activeRelationships.Record(ctx, n)
	}
	if n, err := m.provider.CountHighTierEntities(ctx); err != nil {
		m.logger.Warn("Failed to count high tier entities", zap.Error(err))
	} else {
		m.highTierEntities.Record(ctx, n)
	}
}

// Stop ends periodic collection.
func (m *NetworkMetrics) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}
