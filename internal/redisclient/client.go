package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agrimarket/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// CacheTrustScore stores a seller's trust score for the read surface.
// The database row stays authoritative; this write is best-effort.
func (c *Client) CacheTrustScore(ctx context.Context, score *models.TrustScore, ttl time.Duration) error {
	data, err := json.Marshal(score)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("trustscore:%d", score.SellerID)
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// GetCachedTrustScore retrieves a cached trust score.
// Returns nil without error on a cache miss.
func (c *Client) GetCachedTrustScore(ctx context.Context, sellerID int64) (*models.TrustScore, error) {
	key := fmt.Sprintf("trustscore:%d", sellerID)
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var score models.TrustScore
	if err := json.Unmarshal(data, &score); err != nil {
		return nil, err
	}
	return &score, nil
}

// AcquireLock acquires a distributed lock, used to keep sweeps from overlapping
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
