//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisTreeCache(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)
	c := NewRedisTreeCacheWithClient(client, "test:tree")

	got, gen, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, gen)

	forest := sampleForest()
	require.NoError(t, c.Set(ctx, gen, forest, time.Minute))

	got, _, err = c.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, forest.Roots[0].Entity.ID, got.Roots[0].Entity.ID)
	assert.Equal(t, 2, got.Roots[0].CountNodes())

	ttl, err := client.TTL(ctx, "test:tree").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	t.Run("corrupt entry is a miss", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "test:tree", "not json", time.Minute).Err())
		got, _, err := c.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalidate advances the generation", func(t *testing.T) {
		_, before, err := c.Get(ctx)
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, before, forest, time.Minute))

		require.NoError(t, c.Invalidate(ctx))
		got, after, err := c.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, before+1, after)

		// a rebuild that started before the invalidation is dropped
		require.NoError(t, c.Set(ctx, before, forest, time.Minute))
		got, _, err = c.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
