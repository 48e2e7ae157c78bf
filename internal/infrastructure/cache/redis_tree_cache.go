package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kolnet/backend/internal/domain/network"
	"github.com/redis/go-redis/v9"
)

// DefaultTreeKey is the Redis key holding the serialized forest
const DefaultTreeKey = "kolnet:org-tree:v1"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisTreeCache keeps the forest in Redis so every instance shares it
type RedisTreeCache struct {
	client     *redis.Client
	ownsClient bool
	key        string
}

// NewRedisTreeCache connects to Redis and verifies the connection
func NewRedisTreeCache(cfg RedisConfig) (*RedisTreeCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTreeCache{client: client, ownsClient: true, key: DefaultTreeKey}, nil
}

// NewRedisTreeCacheWithClient wraps an existing client. The caller keeps
// ownership of the client.
func NewRedisTreeCacheWithClient(client *redis.Client, key string) *RedisTreeCache {
	if key == "" {
		key = DefaultTreeKey
	}
	return &RedisTreeCache{client: client, key: key}
}

// errStaleGeneration aborts a Set whose forest predates an invalidation
var errStaleGeneration = errors.New("organization tree generation moved")

func (c *RedisTreeCache) generationKey() string {
	return c.key + ":gen"
}

// Get loads the forest and the generation. A missing key is a miss, not an
// error.
func (c *RedisTreeCache) Get(ctx context.Context) (*network.ForestResult, uint64, error) {
	var data, gen *redis.StringCmd
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		data = p.Get(ctx, c.key)
		gen = p.Get(ctx, c.generationKey())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("failed to read organization tree: %w", err)
	}

	generation, err := gen.Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("failed to read organization tree generation: %w", err)
	}

	raw, err := data.Bytes()
	if err != nil {
		return nil, generation, nil
	}
	var forest network.ForestResult
	if err := json.Unmarshal(raw, &forest); err != nil {
		// a corrupt entry is dropped and treated as a miss
		_ = c.client.Del(ctx, c.key).Err()
		return nil, generation, nil
	}
	return &forest, generation, nil
}

// Set stores the forest with ttl. The write is skipped when another instance
// invalidated the tree after generation was read.
func (c *RedisTreeCache) Set(ctx context.Context, generation uint64, forest network.ForestResult, ttl time.Duration) error {
	data, err := json.Marshal(forest)
	if err != nil {
		return fmt.Errorf("failed to encode organization tree: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, c.generationKey()).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, c.key, data, ttl)
			return nil
		})
		return err
	}, c.generationKey())
	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to write organization tree: %w", err)
	}
	return nil
}

// Invalidate drops the cached forest and advances the generation
func (c *RedisTreeCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, c.key)
		p.Incr(ctx, c.generationKey())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate organization tree: %w", err)
	}
	return nil
}

// Close closes the client if this cache created it
func (c *RedisTreeCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

var _ TreeCache = (*RedisTreeCache)(nil)
