package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kolnet/backend/internal/application/transaction"
	"github.com/kolnet/backend/internal/domain/device"
	"github.com/kolnet/backend/internal/domain/network"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()

	kol := seedProfile(t, db, "K", "kol")
	shop := seedProfile(t, db, "S", "shop_owner")

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := scope.Execute(ctx, func(repos transaction.Repositories) error {
			rel, err := network.NewRelationship(shop, &kol, time.Now(), "", "")
			require.NoError(t, err)
			require.NoError(t, repos.Relationships().Create(ctx, rel))
			return boom
		})
		assert.ErrorIs(t, err, shared.ErrInternal)

		active, err := NewGormRelationshipRepository(db).FindActiveByChild(ctx, shop)
		require.NoError(t, err)
		assert.Nil(t, active)
	})

	t.Run("domain errors pass through", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos transaction.Repositories) error {
			return shared.NewValidationError("bad input")
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("commit spans repositories", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos transaction.Repositories) error {
			rel, err := network.NewRelationship(shop, &kol, time.Now(), "", "")
			if err != nil {
				return err
			}
			if err := repos.Relationships().Create(ctx, rel); err != nil {
				return err
			}
			acc, err := device.NewAccumulator(kol)
			if err != nil {
				return err
			}
			return repos.Accumulators().Create(ctx, acc)
		})
		require.NoError(t, err)

		_, err = NewGormAccumulatorRepository(db).FindByEntity(ctx, kol)
		assert.NoError(t, err)
	})

	t.Run("cancelled context rolls back", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		other := seedProfile(t, db, "O", "kol")
		err := scope.Execute(cctx, func(repos transaction.Repositories) error {
			acc, err := device.NewAccumulator(other)
			if err != nil {
				return err
			}
			if err := repos.Accumulators().Create(cctx, acc); err != nil {
				return err
			}
			cancel()
			return nil
		})
		require.Error(t, err)

		_, err = NewGormAccumulatorRepository(db).FindByEntity(ctx, other)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
