package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sublet/rentals/internal/logger"
)

// ConnectRedis returns a Redis client once it answers PING, retrying with
// exponential backoff for up to maxWait.
func ConnectRedis(addr, password string, db int, maxWait time.Duration, log *zap.SugaredLogger) (*redis.Client, error) {
	log = logger.OrNop(log)
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return rdb.Ping(ctx).Err()
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxWait
	notify := func(err error, wait time.Duration) {
		log.Warnw("Redis not ready, retrying", "addr", addr, "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(ping, b, notify); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis", "addr", addr)
	return rdb, nil
}

// DisconnectRedis closes the Redis client connection.
func DisconnectRedis(client *redis.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	return nil
}
