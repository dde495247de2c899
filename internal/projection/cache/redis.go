package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
)

// indexTTL bounds how long a member's index set outlives its newest entry.
// It only needs to exceed every value TTL; stale index members are harmless
// because DEL ignores keys that have already expired.
const indexTTL = time.Hour

// RedisCache is the shared-deployment implementation. The client lifecycle is
// managed by the caller.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key Key, dest any) error {
	data, err := c.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode cached value: %w", err)
	}
	return nil
}

func (c *RedisCache) Set(ctx context.Context, key Key, value any, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key.String(), data, ttl)
	pipe.SAdd(ctx, key.index(), key.String())
	pipe.Expire(ctx, key.index(), indexTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// InvalidateMember drops every cached read registered for the member along
// with the index itself.
func (c *RedisCache) InvalidateMember(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) error {
	index := memberIndex(tenantID, memberID)
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("list cached keys: %w", err)
	}
	if err := c.client.Del(ctx, append(keys, index)...).Err(); err != nil {
		return fmt.Errorf("drop cached keys: %w", err)
	}
	return nil
}
