package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kolnet/backend/internal/domain/network"
	"github.com/kolnet/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleForest() network.ForestResult {
	root := &network.OrgNode{Entity: network.Entity{ID: uuid.New(), Name: "KOL"}}
	root.Children = []*network.OrgNode{{Entity: network.Entity{ID: uuid.New(), Name: "Shop"}, Depth: 1}}
	return network.ForestResult{Roots: []*network.OrgNode{root}}
}

func TestInMemoryTreeCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryTreeCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	got, gen, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, gen, sampleForest(), time.Minute))
	got, _, err = c.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Roots[0].CountNodes())

	t.Run("expires after ttl", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		got, _, err := c.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalidate drops the entry", func(t *testing.T) {
		_, gen, err := c.Get(ctx)
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, gen, sampleForest(), time.Minute))
		require.NoError(t, c.Invalidate(ctx))
		got, _, err := c.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("forest built before an invalidation is not stored", func(t *testing.T) {
		_, before, err := c.Get(ctx)
		require.NoError(t, err)

		require.NoError(t, c.Invalidate(ctx))
		require.NoError(t, c.Set(ctx, before, sampleForest(), time.Minute))

		got, after, err := c.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, before+1, after)

		require.NoError(t, c.Set(ctx, after, sampleForest(), time.Minute))
		got, _, err = c.Get(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}

func TestNewTreeCache(t *testing.T) {
	logger := zap.NewNop()

	t.Run("disabled", func(t *testing.T) {
		c := NewTreeCache(config.NetworkConfig{TreeCacheEnabled: false}, config.RedisConfig{Enabled: true}, logger)
		assert.IsType(t, NopTreeCache{}, c)
	})

	t.Run("redis disabled uses memory", func(t *testing.T) {
		c := NewTreeCache(config.NetworkConfig{TreeCacheEnabled: true}, config.RedisConfig{Enabled: false}, logger)
		assert.IsType(t, &InMemoryTreeCache{}, c)
	})

	t.Run("unreachable redis falls back to memory", func(t *testing.T) {
		c := NewTreeCache(config.NetworkConfig{TreeCacheEnabled: true},
			config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}, logger)
		assert.IsType(t, &InMemoryTreeCache{}, c)
	})
}

func TestNopTreeCache(t *testing.T) {
	ctx := context.Background()
	c := NopTreeCache{}
	require.NoError(t, c.Set(ctx, 0, sampleForest(), time.Minute))
	got, gen, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, gen)
}
