// FilePath: internal/cache/cache.go
package cache

import (
	"context"
	"fmt"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/config"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// NewRedisClient dials the key-value store and verifies it answers PING.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error connecting to Redis at %s: %w", cfg.Addr(), err)
	}

	nuts.L.Infof("[Redis] Connected to %s/%d", cfg.Addr(), cfg.DB)
	return client, nil
}
