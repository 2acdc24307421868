package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/plazasocial/plaza/pkg/config"
	"github.com/plazasocial/plaza/pkg/logging"
)

// Cache wraps Redis client
type Cache struct {
	client *redis.Client
	ctx    context.Context
}

// New creates a new Redis cache client
func New(cfg *config.RedisConfig) (*Cache, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Redis cache disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetLogger().Info("Redis connection established")

	return &Cache{
		client: client,
		ctx:    context.Background(),
	}, nil
}

// NewWithClient wraps an existing client. Used by tests with an
// in-process Redis.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client, ctx: context.Background()}
}

// namespaceKey prefixes keys so plaza shares a Redis with other
// services safely
func (c *Cache) namespaceKey(key string) string {
	return "plaza:" + key
}

// HashKey builds a stable cache key from parts
func HashKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

// Get retrieves a value from cache
func (c *Cache) Get(key string) (string, error) {
	if c == nil || c.client == nil {
		return "", ErrCacheDisabled
	}
	return c.client.Get(c.ctx, c.namespaceKey(key)).Result()
}

// Set sets a value in cache with TTL
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	return c.client.Set(c.ctx, c.namespaceKey(key), value, ttl).Err()
}

// Delete removes a key from cache
func (c *Cache) Delete(key string) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	return c.client.Del(c.ctx, c.namespaceKey(key)).Err()
}

// Exists checks if a key exists
func (c *Cache) Exists(key string) (bool, error) {
	if c == nil || c.client == nil {
		return false, ErrCacheDisabled
	}
	count, err := c.client.Exists(c.ctx, c.namespaceKey(key)).Result()
	return count > 0, err
}

// SAdd adds members to a set
func (c *Cache) SAdd(ctx context.Context, key string, members ...string) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return c.client.SAdd(ctx, c.namespaceKey(key), args...).Err()
}

// SRem removes members from a set
func (c *Cache) SRem(ctx context.Context, key string, members ...string) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return c.client.SRem(ctx, c.namespaceKey(key), args...).Err()
}

// SIsMember checks set membership
func (c *Cache) SIsMember(ctx context.Context, key, member string) (bool, error) {
	if c == nil || c.client == nil {
		return false, ErrCacheDisabled
	}
	return c.client.SIsMember(ctx, c.namespaceKey(key), member).Result()
}

// SMembers returns all members of a set
func (c *Cache) SMembers(ctx context.Context, key string) ([]string, error) {
	if c == nil || c.client == nil {
		return nil, ErrCacheDisabled
	}
	return c.client.SMembers(ctx, c.namespaceKey(key)).Result()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Health checks Redis health
func (c *Cache) Health(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	return c.client.Ping(ctx).Err()
}

var (
	// ErrCacheDisabled is returned when cache operations are attempted but cache is disabled
	ErrCacheDisabled = fmt.Errorf("cache is disabled")
)
