package token

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(redis *redis.Client) *redisRepository {
	return &redisRepository{redis: redis}
}

// redisRepository stores one key per issued refresh token. A token is valid as long as its key
// exists.
type redisRepository struct {
	redis *redis.Client
}

func refreshTokenKey(userId uint, tokenId string) string {
	return fmt.Sprintf("refresh:%d:%s", userId, tokenId)
}

func (r redisRepository) SetRefreshToken(_ context.Context, userId uint, tokenId string, expiresIn time.Duration) error {
	if err := r.redis.Set(refreshTokenKey(userId, tokenId), 0, expiresIn).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token for user %d: %v", userId, err)
	}
	return nil
}

// DeleteRefreshToken deletes the given refresh token. It returns an error if the token didn't exist.
func (r redisRepository) DeleteRefreshToken(_ context.Context, userId uint, tokenId string) error {
	deleted, err := r.redis.Del(refreshTokenKey(userId, tokenId)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete refresh token for user %d: %v", userId, err)
	}
	if deleted < 1 {
		return fmt.Errorf("refresh token %q for user %d does not exist", tokenId, userId)
	}
	return nil
}

func (r redisRepository) DeleteRefreshTokens(_ context.Context, userId uint) error {
	iter := r.redis.Scan(0, refreshTokenKey(userId, "*"), 100).Iterator()
	for iter.Next() {
		if err := r.redis.Del(iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete refresh token %q: %v", iter.Val(), err)
		}
	}
	return iter.Err()
}
