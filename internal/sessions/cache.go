// Package sessions caches expensive per-document state, such as chat
// sessions, in a bounded LRU.
package sessions

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const DefaultCapacity = 64

// BuildFunc constructs the value for a key that is not cached.
type BuildFunc[V any] func(ctx context.Context) (V, error)

// Cache is safe for concurrent use. At most one build runs per key at a
// time; callers arriving during a build wait for its result. Failed builds
// are not stored.
type Cache[V any] struct {
	entries *lru.Cache[string, V]
	flights singleflight.Group
}

func New[V any](capacity int) (*Cache[V], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, V](capacity)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Cache[V]{entries: entries}, nil
}

// GetOrCreate returns the cached value for key, building it if needed. The
// build is detached from ctx cancellation so one impatient caller does not
// fail the others waiting on the same key; it keeps ctx values.
func (c *Cache[V]) GetOrCreate(ctx context.Context, key string, build BuildFunc[V]) (V, error) {
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}

	ch := c.flights.DoChan(key, func() (interface{}, error) {
		// Another flight may have finished between Get and DoChan.
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		v, err := build(context.WithoutCancel(ctx))
		if err != nil {
			return v, err
		}
		c.entries.Add(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Get returns a cached value without building.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.entries.Get(key)
}

func (c *Cache[V]) Remove(key string) {
	c.entries.Remove(key)
}

func (c *Cache[V]) Len() int {
	return c.entries.Len()
}
