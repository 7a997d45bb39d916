package resetcodes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/redis/go-redis/v9"
)

// compareAndDelete deletes KEYS[1] only if it still equals ARGV[1], so a
// slow change-password can never remove a newer code.
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisRepository struct {
	client redis.UniversalClient
}

var _ Repository = (*RedisRepository)(nil)

func NewRedisRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Put(ctx context.Context, userID int64, code string, ttl time.Duration) error {
	if err := r.client.Set(ctx, Key(userID), code, ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Get(ctx context.Context, userID int64) (string, error) {
	code, err := r.client.Get(ctx, Key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("redis error: %w", err)
	}
	return code, nil
}

func (r *RedisRepository) DeleteIfMatch(ctx context.Context, userID int64, code string) (bool, error) {
	n, err := compareAndDelete.Run(ctx, r.client, []string{Key(userID)}, code).Int64()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n == 1, nil
}
