package cache

import (
	"context"
	"fmt"

	"nft-analytics-pipeline/internal/infrastructure/config"
	"nft-analytics-pipeline/internal/infrastructure/logger"

	goredis "github.com/redis/go-redis/v9"
)

// RedisClient wraps the go-redis client with the configured key prefix
type RedisClient struct {
	*goredis.Client
	prefix string
	logger *logger.Logger
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg *config.RedisConfig, logger *logger.Logger) *RedisClient {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return &RedisClient{
		Client: rdb,
		prefix: cfg.Prefix,
		logger: logger.WithComponent("redis-client"),
	}
}

// Connect verifies connectivity
func (c *RedisClient) Connect(ctx context.Context) error {
	c.logger.Info("Connecting to Redis")
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	c.logger.Info("Successfully connected to Redis")
	return nil
}

// Key returns the namespaced key.
func (c *RedisClient) Key(parts ...string) string {
	key := c.prefix
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}
