package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAccumulatorRepository(db)
	ctx := context.Background()

	entity := seedProfile(t, db, "KOL", "kol")

	_, err := repo.FindByEntity(ctx, entity)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	acc, err := device.NewAccumulator(entity)
	require.NoError(t, err)
	require.NoError(t, acc.RecordSale(3, time.Now()))
	require.NoError(t, repo.Create(ctx, acc))

	t.Run("duplicate entity conflicts", func(t *testing.T) {
		dup, err := device.NewAccumulator(entity)
		require.NoError(t, err)
		err = repo.Create(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	locked, err := repo.FindByEntityForUpdate(ctx, entity)
	require.NoError(t, err)
	require.NoError(t, locked.RecordSale(3, time.Now()))
	locked.IncrementVersion()
	require.NoError(t, repo.SaveWithLock(ctx, locked))

	got, err := repo.FindByEntity(ctx, entity)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.TotalSold)
	assert.Equal(t, int64(6), got.NetSold)
	assert.Equal(t, device.TierHigh, got.CurrentTier)
	assert.NotNil(t, got.TierChangedAt)
	assert.Equal(t, 2, got.Version)

	t.Run("stale write conflicts", func(t *testing.T) {
		stale := *got
		stale.Version = 2
		assert.ErrorIs(t, repo.SaveWithLock(ctx, &stale), shared.ErrConflict)
	})

	high, err := repo.CountByTier(ctx, device.TierHigh)
	require.NoError(t, err)
	assert.Equal(t, int64(1), high)
}

func TestAccumulatorRepository_ListTop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAccumulatorRepository(db)
	ctx := context.Background()

	for _, sold := range []int64{2, 9, 5} {
		acc, err := device.NewAccumulator(seedProfile(t, db, "K", "kol"))
		require.NoError(t, err)
		require.NoError(t, acc.RecordSale(sold, time.Now()))
		require.NoError(t, repo.Create(ctx, acc))
	}

	top, err := repo.ListTop(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(9), top[0].NetSold)
	assert.Equal(t, int64(5), top[1].NetSold)
}

func TestAccumulatorRepository_ForUpdateSQL(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormAccumulatorRepository(gormDB)

	entity := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "device_accumulators" WHERE entity_id = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity_id", "total_sold", "total_returned", "net_sold", "current_tier", "version"}).
			AddRow(uuid.New().String(), entity.String(), 4, 0, 4, "LOW", 3))

	acc, err := repo.FindByEntityForUpdate(context.Background(), entity)
	require.NoError(t, err)
	assert.Equal(t, int64(4), acc.NetSold)
	assert.Equal(t, 3, acc.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccumulatorRepository_SaveWithLockSQL(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormAccumulatorRepository(gormDB)

	acc, err := device.NewAccumulator(uuid.New())
	require.NoError(t, err)
	require.NoError(t, acc.RecordSale(1, time.Now()))
	acc.IncrementVersion()

	t.Run("matching version updates", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "device_accumulators" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.SaveWithLock(context.Background(), acc))
	})

	t.Run("no rows means concurrent modification", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "device_accumulators" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		err := repo.SaveWithLock(context.Background(), acc)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
