package anchord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tether:anchor:"

// RedisStore persists anchors in Redis so they survive server restarts.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a store from a Redis URL
// (e.g. "redis://localhost:6379").
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return &RedisStore{rdb: redis.NewClient(opts)}, nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Put(ctx context.Context, a Anchor) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal anchor: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+a.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("store anchor %s: %w", a.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Anchor, bool, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Anchor{}, false, nil
	}
	if err != nil {
		return Anchor{}, false, fmt.Errorf("load anchor %s: %w", id, err)
	}
	var a Anchor
	if err := json.Unmarshal(data, &a); err != nil {
		return Anchor{}, false, fmt.Errorf("decode anchor %s: %w", id, err)
	}
	return a, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Del(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("delete anchor %s: %w", id, err)
	}
	return n > 0, nil
}
