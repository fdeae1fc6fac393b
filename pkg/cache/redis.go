// Package cache holds the Redis client and the sweet read-model cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ghuser/sweetshop/pkg/config"
)

const (
	defaultPoolSize = 10
	pingTimeout     = 2 * time.Second
)

// RedisClient wraps redis.Client with the pool settings shared by the API
// and the worker. The zero value is closed.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient parses cfg.RedisURL and dials it. Settings in the URL win
// over cfg.RedisPoolSize. The server must answer a PING within 2s or ctx's
// deadline, whichever is earlier.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*RedisClient, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	applyPoolDefaults(opts, cfg)

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	return &RedisClient{client: rdb}, nil
}

func applyPoolDefaults(opts *redis.Options, cfg *config.Config) {
	if opts.ClientName == "" {
		opts.ClientName = cfg.ServiceName
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.RedisPoolSize
		if opts.PoolSize <= 0 {
			opts.PoolSize = defaultPoolSize
		}
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = max(1, opts.PoolSize/5)
	}
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = opts.ReadTimeout + time.Second
}

// Ping checks the Redis connection health.
func (r *RedisClient) Ping(ctx context.Context) error {
	if r.client == nil {
		return errors.New("redis ping: client closed")
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (r *RedisClient) Close() error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}

// Client returns the underlying redis.Client.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}
