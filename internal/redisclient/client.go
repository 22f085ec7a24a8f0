package redisclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client caches an advisory per-size stock snapshot plus checkout
// idempotency keys. The snapshot backs the cart pre-check fast path only;
// the database row lock remains the single authority for stock.
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

func stockKey(productID int64) string {
	return fmt.Sprintf("stock:%d", productID)
}

// SetSizeStock updates one size field of a product's stock snapshot
func (c *Client) SetSizeStock(ctx context.Context, productID int64, size string, stock int) error {
	return c.rdb.HSet(ctx, stockKey(productID), size, stock).Err()
}

// SetProductStocks replaces a product's whole stock snapshot
func (c *Client) SetProductStocks(ctx context.Context, productID int64, stocks map[string]int) error {
	pipe := c.rdb.Pipeline()
	for size, stock := range stocks {
		pipe.HSet(ctx, stockKey(productID), size, stock)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetSizeStock reads the cached stock for a (product, size). The second
// return value is false when the snapshot has no entry.
func (c *Client) GetSizeStock(ctx context.Context, productID int64, size string) (int, bool, error) {
	val, err := c.rdb.HGet(ctx, stockKey(productID), size).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	stock, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("malformed stock snapshot for product %d size %s: %w", productID, size, err)
	}
	return stock, true, nil
}

// SetIdempotencyKey stores a checkout idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, orderID int64, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), orderID, ttl).Err()
}

// CheckIdempotencyKey checks if a checkout idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
