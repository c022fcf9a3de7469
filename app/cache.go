package app

import (
	"time"

	"fitlog/fitness-api/config"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NewCacheStore returns a Redis backed response cache when an address is
// configured and an in-memory one otherwise
func NewCacheStore(c config.Cache) persist.CacheStore {
	if c.RedisAddr == "" {
		return persist.NewMemoryStore(time.Minute)
	}

	zap.L().Info("Using Redis response cache", zap.String("addr", c.RedisAddr))
	return persist.NewRedisStore(redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}))
}
