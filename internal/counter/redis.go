package counter

import (
	"context"
	"time"

	"github.com/getOrdira/ordira-voting/internal/storage"
	"github.com/redis/go-redis/v9"
)

// RedisStore backs the counter primitives with Redis so counts are shared
// across all process instances.
type RedisStore struct {
	redis *storage.RedisClient
}

func NewRedisStore(redisClient *storage.RedisClient) *RedisStore {
	return &RedisStore{redis: redisClient}
}

func (s *RedisStore) IncrWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return s.redis.IncrWithExpiry(ctx, key, ttl)
}

func (s *RedisStore) GetIfPresent(ctx context.Context, key string) (string, bool, error) {
	val, err := s.redis.Get(ctx, key)
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) SetWithExpiry(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.redis.Set(ctx, key, value, ttl)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.redis.Del(ctx, key)
}
