package cache

import (
	"context"
	"time"

	"github.com/matzehuels/towerpath/pkg/observability"
)

type instrumented struct {
	Cache
	hooks observability.CacheHooks
}

// Instrument returns c with every Get and Set reported to hooks under the
// key's type. A nil hooks returns c unchanged.
func Instrument(c Cache, hooks observability.CacheHooks) Cache {
	if hooks == nil {
		return c
	}
	return &instrumented{Cache: c, hooks: hooks}
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if hit {
		c.hooks.OnCacheHit(ctx, KeyType(key))
	} else {
		c.hooks.OnCacheMiss(ctx, KeyType(key))
	}
	return data, hit, nil
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	c.hooks.OnCacheSet(ctx, KeyType(key), len(data))
	return nil
}

// Clear forwards to the wrapped cache when it supports clearing.
func (c *instrumented) Clear(ctx context.Context) (int, error) {
	if cl, ok := c.Cache.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return 0, nil
}
