package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	failKeyPrefix = "throttle:fail:"
	lockKeyPrefix = "throttle:lock:"
)

// RedisLimiter は複数インスタンス間で状態を共有するため Redis に保存します。
type RedisLimiter struct {
	rdb    *redis.Client
	policy Policy
}

// NewRedisLimiter は RedisLimiter を作成します。
func NewRedisLimiter(rdb *redis.Client, policy Policy) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, policy: policy}
}

// NewRedisLimiterFromURL は接続URLから RedisLimiter を作成します。
func NewRedisLimiterFromURL(rawURL string, policy Policy) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return NewRedisLimiter(redis.NewClient(opt), policy), nil
}

// Locked はロックキーの残りTTLを返します。
func (r *RedisLimiter) Locked(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.rdb.TTL(ctx, lockKeyPrefix+key).Result()
	if err != nil {
		return 0, err
	}
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

// Fail は失敗回数を INCR し、上限に達したらロックキーを設定します。
func (r *RedisLimiter) Fail(ctx context.Context, key string) (int, error) {
	failKey := failKeyPrefix + key
	count, err := r.rdb.Incr(ctx, failKey).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.rdb.Expire(ctx, failKey, r.policy.Window).Err(); err != nil {
			return 0, err
		}
	}

	if int(count) >= r.policy.MaxAttempts {
		tx := r.rdb.TxPipeline()
		tx.Set(ctx, lockKeyPrefix+key, "1", r.policy.Lockout)
		tx.Del(ctx, failKey)
		if _, err := tx.Exec(ctx); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return remaining(r.policy.MaxAttempts, int(count)), nil
}

// Reset は失敗回数とロックを消去します。
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, failKeyPrefix+key, lockKeyPrefix+key).Err()
}

// Close は Redis 接続を閉じます。
func (r *RedisLimiter) Close() error {
	return r.rdb.Close()
}
