package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"roadtrip-planner/internal/domain"
	"roadtrip-planner/internal/platform/obs"
	"time"

	"github.com/redis/go-redis/v9"
)

const routeCachePrefix = "cache:route:"

// RedisRouteCache stores routing results in Redis with a TTL.
type RedisRouteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRouteCache(client *redis.Client, ttl time.Duration) *RedisRouteCache {
	return &RedisRouteCache{client: client, ttl: ttl}
}

// Get retrieves a route result; a miss is (nil, false, nil).
func (s *RedisRouteCache) Get(ctx context.Context, key string) (_ *domain.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.redis.Get")(&err)

	data, err := s.client.Get(ctx, routeCachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: %w", err)
	}

	var result domain.RouteResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("get route cache: decode payload: %w", err)
	}
	return &result, true, nil
}

// Put stores a route result under key.
func (s *RedisRouteCache) Put(ctx context.Context, key string, result *domain.RouteResult) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("put route cache: encode payload: %w", err)
	}
	if err := s.client.Set(ctx, routeCachePrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("put route cache: %w", err)
	}
	return nil
}

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
