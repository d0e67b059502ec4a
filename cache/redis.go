// Package cache 推荐候选池的 Redis 缓存，未启用时所有操作为空操作
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"ai_recommendation/config"
	"ai_recommendation/logger"
	"ai_recommendation/models"
)

const keyPrefix = "rec:user"

// RedisCache 按 (user_id, 偏好重置时间, limit) 缓存候选池
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New 根据配置连接 Redis。未启用时返回 nil，nil 的 *RedisCache 可以安全调用
func New(ctx context.Context, cfg *config.Config) (*RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
	}

	logger.Info("Redis 连接成功", "addr", cfg.Redis.Addr, "ttl_sec", cfg.Redis.TTLSec)
	return &RedisCache{
		client: client,
		ttl:    time.Duration(cfg.Redis.TTLSec) * time.Second,
	}, nil
}

// SlateKey 缓存键。偏好重置时间写入键中，用户写入新的主动偏好后旧缓存自然失效
func SlateKey(userID int64, limit int, resetAt *time.Time) string {
	var reset int64
	if resetAt != nil {
		reset = resetAt.UnixNano()
	}
	return fmt.Sprintf("%s:%d:reset:%d:k:%d", keyPrefix, userID, reset, limit)
}

// GetSlate 未命中返回 nil, nil
func (c *RedisCache) GetSlate(ctx context.Context, userID int64, limit int, resetAt *time.Time) (*models.Slate, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	val, err := c.client.Get(ctx, SlateKey(userID, limit, resetAt)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var slate models.Slate
	if err := json.Unmarshal(val, &slate); err != nil {
		return nil, fmt.Errorf("decode cached slate: %w", err)
	}
	return &slate, nil
}

// SetSlate 写入缓存
func (c *RedisCache) SetSlate(ctx context.Context, userID int64, limit int, resetAt *time.Time, slate *models.Slate) error {
	if c == nil || c.client == nil || slate == nil {
		return nil
	}

	b, err := json.Marshal(slate)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, SlateKey(userID, limit, resetAt), b, c.ttl).Err()
}

// Ping 健康检查
func (c *RedisCache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
