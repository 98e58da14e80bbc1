package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rafaelleal24/storefront/internal/core/port"
)

// Cache stores JSON encoded values under "<prefix>:<id>". Sessions and
// idempotency entries each get their own prefix.
type Cache[T any] struct {
	client *Client
	prefix string
}

func NewCache[T any](client *Client, prefix string) port.CachePort[T] {
	return &Cache[T]{client: client, prefix: prefix}
}

func (c *Cache[T]) key(id string) string {
	return fmt.Sprintf("%s:%s", c.prefix, id)
}

func (c *Cache[T]) Get(ctx context.Context, id string) (*T, error) {
	data, err := c.client.Get(ctx, c.key(id))
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", c.prefix, err)
	}

	var value T
	if err := json.Unmarshal([]byte(data), &value); err != nil {
		return nil, fmt.Errorf("redis decode %s: %w", c.prefix, err)
	}
	return &value, nil
}

func (c *Cache[T]) Set(ctx context.Context, id string, value *T, ttl time.Duration) error {
	data, err := c.encode(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(id), data, ttl); err != nil {
		return fmt.Errorf("redis set %s: %w", c.prefix, err)
	}
	return nil
}

func (c *Cache[T]) SetNX(ctx context.Context, id string, value *T, ttl time.Duration) (bool, error) {
	data, err := c.encode(value)
	if err != nil {
		return false, err
	}
	ok, err := c.client.SetNX(ctx, c.key(id), data, ttl)
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", c.prefix, err)
	}
	return ok, nil
}

func (c *Cache[T]) Del(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.key(id)); err != nil {
		return fmt.Errorf("redis del %s: %w", c.prefix, err)
	}
	return nil
}

func (c *Cache[T]) encode(value *T) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("redis encode %s: %w", c.prefix, err)
	}
	return string(data), nil
}
