package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vesselwatch/transit-engine/internal/geometry"
	"github.com/vesselwatch/transit-engine/internal/types"
)

// RedisClientInterface defines the Redis operations used by our client
type RedisClientInterface interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Client manages Redis connections and operations
type Client struct {
	client RedisClientInterface
}

// New creates a new Redis client
func New(addr string) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client}, nil
}

// NewWithClient creates a new Redis client with a custom RedisClientInterface (useful for testing)
func NewWithClient(client RedisClientInterface) *Client {
	return &Client{client: client}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// StoreRegion caches a region's vertex ring under its name.
func (c *Client) StoreRegion(ctx context.Context, region *geometry.Region) error {
	data, err := json.Marshal(region.Ring())
	if err != nil {
		return fmt.Errorf("failed to marshal region ring: %w", err)
	}

	key := fmt.Sprintf("region:%s", region.Name())
	return c.client.Set(ctx, key, data, 0).Err()
}

// GetRegion rebuilds a cached region by name. Returns nil with no error
// when the region is not cached.
func (c *Client) GetRegion(ctx context.Context, name string) (*geometry.Region, error) {
	key := fmt.Sprintf("region:%s", name)
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get region data: %w", err)
	}

	var ring []geometry.Point
	if err := json.Unmarshal(data, &ring); err != nil {
		return nil, fmt.Errorf("failed to unmarshal region ring: %w", err)
	}
	return geometry.NewRegion(name, ring)
}

// DeleteRegion removes a cached region.
func (c *Client) DeleteRegion(ctx context.Context, name string) error {
	key := fmt.Sprintf("region:%s", name)
	return c.client.Del(ctx, key).Err()
}

// StoreRunSummary caches the latest detection run for a region pair.
func (c *Client) StoreRunSummary(ctx context.Context, run *types.DetectionRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	key := fmt.Sprintf("run:%s:%s", run.CoverageName, run.TargetName)
	return c.client.Set(ctx, key, data, 7*24*time.Hour).Err()
}

// GetRunSummary retrieves the latest detection run for a region pair.
// Returns nil with no error when no run is cached.
func (c *Client) GetRunSummary(ctx context.Context, coverageName, targetName string) (*types.DetectionRun, error) {
	key := fmt.Sprintf("run:%s:%s", coverageName, targetName)
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run summary: %w", err)
	}

	var run types.DetectionRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}
	return &run, nil
}
