package repository

import (
	"context"
	"encoding/json"
	"time"

	"pracas_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	cachePrefix = "pracas:cache:"
	tagPrefix   = "pracas:tag:"
)

// Cache stores JSON snapshots in redis grouped by tag, so that every entry of
// a tag can be dropped at once. A nil Redis client disables it.
type Cache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Redis: rdb, TTL: ttl}
}

// Get loads key into dst and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) bool {
	if c == nil || c.Redis == nil {
		return false
	}
	data, err := c.Redis.Get(ctx, cachePrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Log.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) Set(ctx context.Context, tag, key string, value interface{}) {
	if c == nil || c.Redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_, err = c.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, cachePrefix+key, data, c.TTL)
		pipe.SAdd(ctx, tagPrefix+tag, cachePrefix+key)
		pipe.Expire(ctx, tagPrefix+tag, c.TTL)
		return nil
	})
	if err != nil {
		logger.Log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every entry stored under tag.
func (c *Cache) Invalidate(ctx context.Context, tag string) {
	if c == nil || c.Redis == nil {
		return
	}
	keys, err := c.Redis.SMembers(ctx, tagPrefix+tag).Result()
	if err != nil {
		logger.Log.Warn("cache invalidate failed", zap.String("tag", tag), zap.Error(err))
		return
	}
	keys = append(keys, tagPrefix+tag)
	if err := c.Redis.Del(ctx, keys...).Err(); err != nil {
		logger.Log.Warn("cache invalidate failed", zap.String("tag", tag), zap.Error(err))
	}
}
