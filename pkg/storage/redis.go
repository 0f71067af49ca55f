package storage

import (
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/partyhub/partyhub/pkg/config"
)

const redisDialTimeout = 5 * time.Second

// NewRedis connects to the Redis instance holding refresh tokens and cached geocoder lookups.
func NewRedis(c config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        c.Address(),
		Password:    c.Password,
		DB:          c.DB,
		DialTimeout: redisDialTimeout,
	})

	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %v", c.Address(), err)
	}

	return client, nil
}
