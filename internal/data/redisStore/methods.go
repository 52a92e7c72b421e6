package redisStore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// list helpers for the session store
func (s *Store) ListPush(ctx context.Context, key string, value interface{}) error {
	return s.client.RPush(ctx, key, value).Err()
}

// ListPushCapped appends and trims the list to its newest max entries, then
// refreshes the idle TTL. One pipeline round trip.
func (s *Store) ListPushCapped(ctx context.Context, key string, value interface{}, max int64, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, value)
	pipe.LTrim(ctx, key, -max, -1)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.getCount(ctx, key)
	return count > 0, err
}

func (s *Store) getCount(ctx context.Context, key string) (int64, error) {
	return s.client.Exists(ctx, key).Result()
}

func (s *Store) ListGetRecent(ctx context.Context, key string, count int64) ([]string, error) {
	length, err := s.client.LLen(ctx, key).Result()
	if length < 1 || err != nil {
		return []string{}, err
	}
	if length < count {
		return s.ListGetAll(ctx, key)
	}
	return s.listGetFrom(ctx, key, -count)
}

func (s *Store) ListGetAll(ctx context.Context, key string) ([]string, error) {
	return s.listGetFrom(ctx, key, int64(0))
}

func (s *Store) listGetFrom(ctx context.Context, key string, start int64) ([]string, error) {
	result, err := s.client.LRange(ctx, key, start, -1).Result()
	return result, err
}

// CountKeys scans for keys matching the pattern. Used for the active
// session count, so a full SCAN walk is acceptable.
func (s *Store) CountKeys(ctx context.Context, pattern string) (int, error) {
	var cursor uint64
	total := 0
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return total, err
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}
