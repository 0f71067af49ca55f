package geocode

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis"
)

func NewRedisCache(client *redis.Client) RedisCache {
	return RedisCache{client}
}

type RedisCache struct {
	client *redis.Client
}

func (r RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.WithContext(ctx).Get(key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.WithContext(ctx).Set(key, value, ttl).Err()
}
