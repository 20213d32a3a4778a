package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/naptholomew/tempest-attendance/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Keys and channels. The latest-snapshot key has no TTL: it is replaced only
// by a successful roll-up, so a failed run can never evict a good result.
const (
	LatestSnapshotKey = "attendance:latest"
	RefreshedChannel  = "attendance:rollup.refreshed"
)

// Client wraps Redis for the hot snapshot cache and refresh notifications.
type Client struct {
	client *redis.Client
	logger *zap.Logger
}

// NewClient creates a Redis client from the environment:
//   - REDIS_HOST (default "localhost"), REDIS_PORT (default "6379")
//   - REDIS_PASSWORD (default ""), REDIS_DB (default 0)
func NewClient(ctx context.Context, logger *zap.Logger) (*Client, error) {
	host := utils.Env("REDIS_HOST", "localhost")
	port := utils.Env("REDIS_PORT", "6379")
	password := utils.Env("REDIS_PASSWORD", "")
	dbNum := utils.EnvInt("REDIS_DB", 0)

	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       dbNum,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", addr), zap.Int("db", dbNum))

	return &Client{client: rdb, logger: logger}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Health checks if Redis is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// SetLatest stores the serialized roll-up snapshot.
func (c *Client) SetLatest(ctx context.Context, body []byte) error {
	return c.client.Set(ctx, LatestSnapshotKey, body, 0).Err()
}

// GetLatest returns the cached snapshot, or nil when the cache is cold.
func (c *Client) GetLatest(ctx context.Context) ([]byte, error) {
	body, err := c.client.Get(ctx, LatestSnapshotKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return body, err
}

// PublishRefreshed announces a fresh roll-up. Best-effort: a lost
// notification only delays websocket consumers until the next refresh.
func (c *Client) PublishRefreshed(ctx context.Context, payload any) {
	if err := c.client.Publish(ctx, RefreshedChannel, payload).Err(); err != nil {
		c.logger.Warn("Failed to publish refresh notification", zap.Error(err))
	}
}

// SubscribeRefreshed subscribes to roll-up refresh notifications. The caller
// owns the returned PubSub and must close it.
func (c *Client) SubscribeRefreshed(ctx context.Context) *redis.PubSub {
	return c.client.Subscribe(ctx, RefreshedChannel)
}
