package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// connectBaseDelay is the first wait between ping attempts; it doubles after each failure.
var connectBaseDelay = time.Second

// ConnectRedis dials addr and pings until the server answers or maxRetries
// attempts have failed. Waiting stops early when ctx is cancelled.
func ConnectRedis(ctx context.Context, addr string, password string, maxRetries int) (*redis.Client, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}

	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		DB:              0,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		// Must exceed the 2s XREADGROUP block so idle reads do not time out.
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	var err error
	for i := range maxRetries {
		if i > 0 {
			backoff := connectBaseDelay << uint(i-1)
			log.Info().Str("addr", addr).Dur("backoff", backoff).Msg("Waiting before Redis retry")
			select {
			case <-ctx.Done():
				client.Close()
				return nil, fmt.Errorf("redis connect cancelled: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		err = client.Ping(ctx).Err()
		if err == nil {
			log.Info().Str("addr", addr).Int("attempts_needed", i+1).Msg("Redis connected")
			return client, nil
		}

		log.Warn().Err(err).Str("addr", addr).Int("attempt", i+1).Int("max_retries", maxRetries).Msg("Redis ping failed")
	}

	client.Close()
	return nil, fmt.Errorf("failed to connect to Redis at %s after %d attempts: %w", addr, maxRetries, err)
}
