package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestMetrics(t *testing.T) (*NetworkMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewNetworkMetrics(provider.Meter("test"), zap.NewNop())
	require.NoError(t, err)
	return m, reader
}

func collectNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewNetworkMetrics_NilMeter(t *testing.T) {
	_, err := NewNetworkMetrics(nil, nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestNetworkMetrics_Record(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRelationshipOp(ctx, "create", nil)
	m.RecordRelationshipOp(ctx, "create", errors.New("conflict"))
	m.RecordTierChange(ctx, "HIGH", true)
	m.RecordCascade(ctx, "order_items", 3)
	m.RecordCascade(ctx, "orders", 0)
	m.RecordIntegrityBlocked(ctx, "profiles")
	m.RecordCommission(ctx, "ORDER", "LOW", decimal.NewFromInt(100))
	m.ObserveOperation(ctx, "record_sale", time.Now(), nil)

	got := collectNames(t, reader)
	ops, ok := got["kolnet_relationship_operations_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, ops.DataPoints, 2)

	cascade := got["kolnet_cascade_deleted_rows_total"].Data.(metricdata.Sum[int64])
	require.Len(t, cascade.DataPoints, 1)
	assert.Equal(t, int64(3), cascade.DataPoints[0].Value)

	assert.Contains(t, got, "kolnet_operation_duration_seconds")
	assert.Contains(t, got, "kolnet_commission_amount_total")
}

type fakeStats struct{}

func (fakeStats) CountActiveRelationships(context.Context) (int64, error) { return 7, nil }
func (fakeStats) CountHighTierEntities(context.Context) (int64, error)    { return 2, nil }

func TestNetworkMetrics_Collect(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.provider = fakeStats{}
	m.collect(context.Background())

	got := collectNames(t, reader)
	gauge := got["kolnet_active_relationships"].Data.(metricdata.Gauge[int64])
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(7), gauge.DataPoints[0].Value)

	m.Stop()
	m.Stop()
}
