// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates the client backing the search cache and checks it answers.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := PingRedis(ctx, rdb); err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

// PingRedis tests the Redis connection
func PingRedis(ctx context.Context, rdb redis.UniversalClient) error {
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
