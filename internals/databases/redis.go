package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"techfest_backend/internals/configs"
	"techfest_backend/internals/logging"
)

// ConnectRedis returns (nil, nil) when REDIS_ADDR is empty.
func ConnectRedis(cfg configs.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	logging.Logger.Info().Str("addr", cfg.Addr).Msg("Redis connected")
	return rdb, nil
}
