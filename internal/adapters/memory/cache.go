package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/rafaelleal24/storefront/internal/core/port"
)

// Cache is the single-process CachePort. Values are stored JSON encoded so
// callers never share memory with the store, matching the redis adapter.
// Reads do not extend an entry's ttl.
type Cache[T any] struct {
	items *ttlcache.Cache[string, []byte]
}

func NewCache[T any]() *Cache[T] {
	return &Cache[T]{
		items: ttlcache.New[string, []byte](
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

var _ port.CachePort[struct{}] = (*Cache[struct{}])(nil)

func (c *Cache[T]) Get(_ context.Context, key string) (*T, error) {
	item := c.items.Get(key)
	if item == nil {
		return nil, nil
	}

	var value T
	if err := json.Unmarshal(item.Value(), &value); err != nil {
		return nil, fmt.Errorf("memory decode %s: %w", key, err)
	}
	return &value, nil
}

func (c *Cache[T]) Set(_ context.Context, key string, value *T, ttl time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	c.items.Set(key, data, itemTTL(ttl))
	return nil
}

// SetNX stores value only when key is absent or expired.
func (c *Cache[T]) SetNX(_ context.Context, key string, value *T, ttl time.Duration) (bool, error) {
	data, err := encode(value)
	if err != nil {
		return false, err
	}
	_, found := c.items.GetOrSet(key, data, ttlcache.WithTTL[string, []byte](itemTTL(ttl)))
	return !found, nil
}

func (c *Cache[T]) Del(_ context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

// RunSweeper evicts expired entries in the background until ctx is done.
func (c *Cache[T]) RunSweeper(ctx context.Context) {
	go c.items.Start()
	<-ctx.Done()
	c.items.Stop()
}

func encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("memory encode: %w", err)
	}
	return data, nil
}

// itemTTL maps a zero or negative ttl to an entry that never expires.
func itemTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttlcache.NoTTL
	}
	return ttl
}
