package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/WooyoungKwon/youtube-premium-sub001/shared/utils"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultAuditStream is the stream admin write events are appended to
	DefaultAuditStream = "membership:admin-audit"
	// DefaultStreamMaxLen caps the stream so it never grows unbounded
	DefaultStreamMaxLen = 10000
)

// Config holds all configuration for the Redis client
type Config struct {
	Addr         string
	Password     string
	DB           int
	Stream       string
	StreamMaxLen int64
	DialTimeout  time.Duration
}

// NewConfig reads REDIS_ADDR, REDIS_PASSWORD, REDIS_DB and REDIS_AUDIT_STREAM
func NewConfig() *Config {
	return &Config{
		Addr:         utils.GetEnvOrDefault("REDIS_ADDR", ""),
		Password:     utils.GetEnvOrDefault("REDIS_PASSWORD", ""),
		DB:           utils.GetEnvIntOrDefault("REDIS_DB", 0),
		Stream:       utils.GetEnvOrDefault("REDIS_AUDIT_STREAM", DefaultAuditStream),
		StreamMaxLen: int64(utils.GetEnvIntOrDefault("REDIS_AUDIT_MAXLEN", DefaultStreamMaxLen)),
		DialTimeout:  utils.GetEnvDurationOrDefault("REDIS_DIAL_TIMEOUT", 5*time.Second),
	}
}

// Enabled reports whether a Redis address was configured
func (c *Config) Enabled() bool {
	return c.Addr != ""
}

// RedisClient is a wrapper around the go-redis client.
// It appends admin audit events to a capped stream.
type RedisClient struct {
	client *redis.Client
	config *Config
}

// NewClient creates and connects a new RedisClient.
func NewClient(cfg *Config) (*RedisClient, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisClient{
		client: rdb,
		config: cfg,
	}, nil
}

// Close gracefully closes the Redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}

// PublishAuditEvent adds an event to the configured audit stream using XADD.
func (c *RedisClient) PublishAuditEvent(ctx context.Context, data map[string]interface{}) (string, error) {
	args := &redis.XAddArgs{
		Stream: c.config.Stream,
		Values: data,
	}
	if c.config.StreamMaxLen > 0 {
		args.MaxLen = c.config.StreamMaxLen
		args.Approx = true
	}

	msgID, err := c.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("failed to XADD to stream %s: %w", c.config.Stream, err)
	}
	return msgID, nil
}

// HealthCheck verifies Redis connectivity
func (c *RedisClient) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
