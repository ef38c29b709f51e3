package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSummaryCache implements cart.SummaryCache using Redis. Suitable for
// distributed deployments where multiple instances share cached summaries.
type RedisSummaryCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisSummaryCache creates a new Redis-backed summary cache
func NewRedisSummaryCache(cfg RedisConfig) (*RedisSummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSummaryCache{
		client:    client,
		keyPrefix: "cart:summary:",
	}, nil
}

// NewRedisSummaryCacheWithClient creates a cache with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisSummaryCacheWithClient(client *redis.Client, keyPrefix string) *RedisSummaryCache {
	if keyPrefix == "" {
		keyPrefix = "cart:summary:"
	}
	return &RedisSummaryCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (c *RedisSummaryCache) key(tenantID, cartID uuid.UUID) string {
	return c.keyPrefix + tenantID.String() + ":" + cartID.String()
}

// Put stores a serialized summary with a TTL
func (c *RedisSummaryCache) Put(ctx context.Context, tenantID, cartID uuid.UUID, payload []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(tenantID, cartID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache summary: %w", err)
	}
	return nil
}

// Get returns the cached payload and whether it was present
func (c *RedisSummaryCache) Get(ctx context.Context, tenantID, cartID uuid.UUID) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.key(tenantID, cartID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached summary: %w", err)
	}
	return val, true, nil
}

// Invalidate drops the cached summary for a cart
func (c *RedisSummaryCache) Invalidate(ctx context.Context, tenantID, cartID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(tenantID, cartID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached summary: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}

// Ensure RedisSummaryCache implements cart.SummaryCache
var _ cart.SummaryCache = (*RedisSummaryCache)(nil)
