package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/eaglebank/bank-api/shared/config"
)

type Client struct {
	*redis.Client
}

// NewClient connects to cfg.RedisAddr and pings it, bounded by the dial timeout.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	rdb := redis.NewClient(newOptions(cfg))

	ctx, cancel := context.WithTimeout(ctx, cfg.RedisDialTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	return &Client{Client: rdb}, nil
}

func newOptions(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisReadTimeout,
		WriteTimeout: cfg.RedisWriteTimeout,
		PoolSize:     cfg.RedisPoolSize,
	}
}
