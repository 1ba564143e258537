package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"tokokita/backend/internal/domain"
)

type RedisNotificationCache struct {
	client *redis.Client
}

func NewRedisNotificationCache(addr string, password string, db int) *RedisNotificationCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisNotificationCache{client: client}
}

func (c *RedisNotificationCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisNotificationCache) Close() error {
	return c.client.Close()
}

func (c *RedisNotificationCache) Get(ctx context.Context, key string) ([]domain.Notification, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var notifications []domain.Notification
	if err := json.Unmarshal([]byte(val), &notifications); err != nil {
		return nil, false, err
	}
	return notifications, true, nil
}

func (c *RedisNotificationCache) Set(ctx context.Context, key string, value []domain.Notification, ttl time.Duration) error {
	if value == nil {
		value = []domain.Notification{}
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisNotificationCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
