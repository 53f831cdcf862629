package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Company profiles are near-static, so cached sectors are kept for a week.
// Every hit saves one remote call against the per-minute quota.
const profileTTL = 7 * 24 * time.Hour

// ProfileCache caches company sector lookups in Redis. A nil *ProfileCache
// is valid and behaves as a cache that never hits.
type ProfileCache struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection
func New(ctx context.Context, addr string) (*ProfileCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &ProfileCache{client: client}, nil
}

// GetSector returns the cached sector for a symbol, or found=false on a miss.
// Cache errors are reported as misses so callers fall back to a remote fetch.
func (c *ProfileCache) GetSector(ctx context.Context, symbol string) (string, bool) {
	if c == nil {
		return "", false
	}
	sector, err := c.client.Get(ctx, profileKey(symbol)).Result()
	if err != nil {
		return "", false
	}
	return sector, true
}

// SetSector stores a symbol's sector with the profile TTL
func (c *ProfileCache) SetSector(ctx context.Context, symbol, sector string) error {
	if c == nil {
		return nil
	}
	if err := c.client.Set(ctx, profileKey(symbol), sector, profileTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache sector for %s: %w", symbol, err)
	}
	return nil
}

// Close closes the Redis connection
func (c *ProfileCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func profileKey(symbol string) string {
	return "profile:" + symbol
}
