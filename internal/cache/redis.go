package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// pingTimeout bounds the connectivity check so a bad REDIS_URL or
// PREFS_REDIS_URL fails at startup instead of on the first command.
const pingTimeout = 3 * time.Second

// Connect opens a Redis client for redisURL and pings it. The server uses
// it for the response cache and the CLI for its preference store.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if opts.DialTimeout == 0 || opts.DialTimeout > pingTimeout {
		opts.DialTimeout = pingTimeout
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}
