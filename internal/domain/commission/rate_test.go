package commission

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateTable_DeviceCommission(t *testing.T) {
	rates := DefaultRateTable()

	standard, actual := rates.DeviceCommission(device.TierLow, 2)
	assert.True(t, standard.Equal(decimal.NewFromInt(3_000_000)))
	assert.True(t, actual.Equal(standard))

	standard, actual = rates.DeviceCommission(device.TierHigh, -1)
	assert.True(t, standard.Equal(decimal.NewFromInt(2_500_000)))
	assert.True(t, actual.Equal(decimal.NewFromInt(-2_500_000)))
}

func TestRateTable_CheckDeviceCommission(t *testing.T) {
	rates := DefaultRateTable()
	standard := decimal.NewFromInt(3_000_000)

	ok, _ := rates.CheckDeviceCommission(standard, standard, 2)
	assert.True(t, ok)

	ok, _ = rates.CheckDeviceCommission(standard, standard.Neg(), -2)
	assert.True(t, ok, "a return priced at the negated standard is in band")

	ok, _ = rates.CheckDeviceCommission(standard, decimal.NewFromInt(4_500_000), 2)
	assert.True(t, ok, "exactly 50% above is still in band")

	ok, dev := rates.CheckDeviceCommission(standard, decimal.NewFromInt(5_000_000), 2)
	assert.False(t, ok)
	assert.True(t, dev.Equal(decimal.NewFromInt(2_000_000)))
}

func TestRateTable_Validate(t *testing.T) {
	require.NoError(t, DefaultRateTable().Validate())

	bad := DefaultRateTable()
	bad.HighTierRate = decimal.NewFromInt(2)
	assert.ErrorIs(t, bad.Validate(), shared.ErrValidation)
}

func TestNewQuote(t *testing.T) {
	rates := DefaultRateTable()
	child, top := uuid.New(), uuid.New()

	q, err := NewQuote(child, top, device.TierHigh, rates, decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.True(t, q.Rate.Equal(decimal.NewFromFloat(0.15)))
	assert.True(t, q.Amount.Equal(decimal.NewFromInt(150)))

	q, err = NewQuote(child, top, device.TierLow, rates, decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.True(t, q.Amount.Equal(decimal.NewFromInt(100)))

	_, err = NewQuote(child, top, device.TierLow, rates, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestNewEntry(t *testing.T) {
	q, _ := NewQuote(uuid.New(), uuid.New(), device.TierLow, DefaultRateTable(), decimal.NewFromInt(500))
	actor := shared.Actor{ID: uuid.New(), Role: shared.RoleAdmin}

	e, err := NewEntry(q, SourceTypeOrder, nil, actor)
	require.NoError(t, err)
	assert.Equal(t, q.TopLevelEntityID, e.EntityID)
	require.NotNil(t, e.CreatedBy)
	assert.Equal(t, actor.ID, *e.CreatedBy)

	_, err = NewEntry(q, SourceType("GIFT"), nil, actor)
	assert.Error(t, err)
}
