// Package redis holds the Redis-backed pieces of the service: the client
// factory and the shared rate-limit store.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDialTimeout = 5 * time.Second
	// Rate-limit checks sit on the request path; fail fast instead of
	// holding the request while Redis is slow.
	defaultOpTimeout = 500 * time.Millisecond
)

type Config struct {
	Addr     string
	Password string
	DB       int
	// OpTimeout bounds each read and write. Defaults to 500ms.
	OpTimeout time.Duration
}

// Connect dials Redis and pings it once. The returned client is owned by the
// caller.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Ping is the readiness check for the Redis backend.
func Ping(ctx context.Context, client *redis.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
