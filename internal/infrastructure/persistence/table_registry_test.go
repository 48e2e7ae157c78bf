package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/integrity"
	"github.com/kolnet/backend/internal/domain/shared"
	"github.com/kolnet/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRegistry_CoversCatalog(t *testing.T) {
	registry := NewGormTableRegistry(nil)
	require.NoError(t, integrity.CheckCoverage(integrity.DefaultCatalog(), registry))

	for _, table := range integrity.AllTables {
		_, err := registry.Accessor(table)
		assert.NoError(t, err, table)
	}
}

func TestTableRegistry_RejectsUnknown(t *testing.T) {
	registry := NewGormTableRegistry(nil)

	_, err := registry.Accessor(integrity.Table("users; drop table profiles"))
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.False(t, registry.Supports(integrity.TableOrders, integrity.ColumnKOLID))

	acc, err := registry.Accessor(integrity.TableOrders)
	require.NoError(t, err)
	_, err = acc.Count(context.Background(), integrity.ColumnKOLID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestTableRegistry_Queries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	registry := NewGormTableRegistry(db)

	shop := seedProfile(t, db, "Shop", "shop_owner")
	order := &models.OrderModel{BaseModel: base(), ShopID: shop}
	require.NoError(t, db.Create(order).Error)
	product := &models.ProductModel{BaseModel: base(), Name: "Serum"}
	require.NoError(t, db.Create(product).Error)
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&models.OrderItemModel{BaseModel: base(), OrderID: order.ID, ProductID: product.ID}).Error)
	}

	items, err := registry.Accessor(integrity.TableOrderItems)
	require.NoError(t, err)

	n, err := items.Count(ctx, integrity.ColumnOrderID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ids, err := items.ReferencingIDs(ctx, integrity.ColumnProductID, product.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	deleted, err := items.Delete(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	orders, err := registry.Accessor(integrity.TableOrders)
	require.NoError(t, err)
	exists, err := orders.Exists(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = orders.Exists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)
}
