// Package cache provides a tiny Redis client wrapper for caching
// prediction responses. Prediction is a pure function of the request given
// fixed artifacts, so cached entries never go stale within one deployment;
// the key includes the model version so a redeploy invalidates naturally.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkale2207/house-price-service/internal/features"
)

// Cache wraps a Redis client for prediction response storage
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a new Cache instance connected to the specified Redis address
// If addr is empty, defaults to localhost:6379
func New(addr string, ttl time.Duration) (*Cache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password by default
		DB:       0,  // Default DB
	})

	// Test connection
	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Key derives the cache key for a validated request under a given model
// version. Requests that validate to the same values share a key.
func Key(modelVersion string, req features.Request) string {
	canonical := fmt.Sprintf("%g|%d|%d|%s|%d|%s",
		req.Sqft, req.Bedrooms, req.Bathrooms, req.Location, req.YearBuilt, req.Condition)
	sum := sha256.Sum256([]byte(canonical))
	return fmt.Sprintf("predict:%s:%s", modelVersion, hex.EncodeToString(sum[:]))
}

// GetResponse retrieves a cached prediction response body.
// Returns "" with no error on a cache miss.
func (c *Cache) GetResponse(ctx context.Context, key string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("cache client is nil")
	}

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil // Key does not exist
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cached prediction: %w", err)
	}

	return data, nil
}

// SetResponse stores a prediction response body under key with the
// configured TTL.
func (c *Cache) SetResponse(ctx context.Context, key, data string) error {
	if c.client == nil {
		return fmt.Errorf("cache client is nil")
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache prediction: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
