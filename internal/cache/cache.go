// Package cache is a best-effort read-through cache for user list and detail
// queries. Entries live 60 seconds and are never actively invalidated on
// write; a miss always falls back to the database.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const TTL = 60 * time.Second

type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached payload, or nil on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return data, nil
}

// Set overwrites the entry unconditionally.
func (c *Cache) Set(ctx context.Context, key string, data []byte) error {
	return c.client.Set(ctx, key, data, TTL).Err()
}

// SetNX writes the entry only if absent, so a concurrent filler does not
// overwrite a page another request already cached.
func (c *Cache) SetNX(ctx context.Context, key string, data []byte) error {
	return c.client.SetNX(ctx, key, data, TTL).Err()
}

func ListKey(canonicalQuery []byte) string {
	return "list:" + string(canonicalQuery)
}

func UserKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}
