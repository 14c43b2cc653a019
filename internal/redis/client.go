// Package redis wraps the go-redis client with the counting primitives the
// rate limiter needs: an approximate sliding-window increment-and-check and
// key deletion for quota resets.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type Client struct {
	rdb    *redis.Client
	config *Config
}

type Config struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{
		rdb:    rdb,
		config: config,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// WindowSample is the result of one sliding-window increment: the number of
// requests observed in the current window (including the one just recorded)
// and the time the oldest of them leaves the window.
type WindowSample struct {
	Count   int
	ResetAt time.Time
}

// IncrWindow records one request against key and counts how many requests
// fall inside the trailing window. The request is always recorded, even when
// the window is already saturated; extra members only make the window
// stricter, never more permissive.
func (c *Client) IncrWindow(ctx context.Context, key string, window time.Duration) (*WindowSample, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixMilli()

	member := fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString())

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now.UnixMilli()), Member: member})
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	// Keep data a bit longer than the window so idle keys expire on their own
	pipe.Expire(ctx, key, window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to advance rate limit window: %w", err)
	}

	resetAt := now.Add(window)
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		resetAt = time.UnixMilli(int64(oldest[0].Score)).Add(window)
	}

	return &WindowSample{
		Count:   int(countCmd.Val()),
		ResetAt: resetAt,
	}, nil
}

// Delete removes a counter key, clearing any accumulated window state.
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}
