package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const linkKeyPrefix = "link:"

// LinkCache holds alias to URL mappings as plain string values. Entries are
// bounded by the TTL handed to Set; the store stays the source of truth.
type LinkCache struct {
	client *redis.Client
}

func NewLinkCache(client *redis.Client) (*LinkCache, error) {
	if client == nil {
		return nil, errors.New("redis client is nil")
	}
	return &LinkCache{client: client}, nil
}

func (c *LinkCache) Get(ctx context.Context, alias string) (string, bool, error) {
	val, err := c.client.Get(ctx, linkKeyPrefix+alias).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *LinkCache) Set(ctx context.Context, alias, url string, ttl time.Duration) error {
	return c.client.Set(ctx, linkKeyPrefix+alias, url, ttl).Err()
}

func (c *LinkCache) Delete(ctx context.Context, alias string) error {
	return c.client.Del(ctx, linkKeyPrefix+alias).Err()
}
