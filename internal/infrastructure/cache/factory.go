package cache

import (
	"github.com/kolnet/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewTreeCache picks the tree cache for the given configuration: nothing when
// caching is disabled, Redis when reachable, memory otherwise.
func NewTreeCache(netCfg config.NetworkConfig, redisCfg config.RedisConfig, logger *zap.Logger) TreeCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !netCfg.TreeCacheEnabled {
		logger.Info("organization tree cache disabled")
		return NopTreeCache{}
	}
	if !redisCfg.Enabled {
		logger.Info("using in-memory organization tree cache")
		return NewInMemoryTreeCache()
	}

	c, err := NewRedisTreeCache(RedisConfig{
		Host:     redisCfg.Host,
		Port:     redisCfg.Port,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory organization tree cache. "+
			"Instances will not share invalidations until Redis is back.",
			zap.Error(err),
		)
		return NewInMemoryTreeCache()
	}
	logger.Info("using Redis organization tree cache", zap.String("addr", redisCfg.Addr()))
	return c
}
