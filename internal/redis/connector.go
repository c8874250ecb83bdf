package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jamezpolley/stashboard/internal/logger"
)

// ConnectOptions defines the Redis client settings and the startup retry policy.
type ConnectOptions struct {
	Addr         string        // Redis address (ex: "localhost:6379")
	User         string        // Optional username
	Password     string        // Optional password
	DB           int           // Redis DB number
	DialTimeout  time.Duration // Redis dial timeout
	ReadTimeout  time.Duration // Redis read timeout
	WriteTimeout time.Duration // Redis write timeout
	PoolSize     int           // Redis connection pool size

	ConnectTimeout time.Duration // Total time allowed for connection attempts (ex: 30s)
	RetryInterval  time.Duration // Initial wait between retries, doubled after each failure
	MaxWait        time.Duration // Cap on the wait between retries
	PingTimeout    time.Duration // Timeout for each ping attempt
	WarnThreshold  int           // Attempts logged as warnings before escalating to errors
}

func (o ConnectOptions) validate() error {
	switch {
	case o.ConnectTimeout <= 0:
		return fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout)
	case o.RetryInterval <= 0:
		return fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval)
	case o.MaxWait <= 0:
		return fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait)
	case o.PingTimeout <= 0:
		return fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout)
	case o.WarnThreshold < 0:
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold)
	}
	return nil
}

// pinger is the part of the client used while waiting for Redis.
type pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// New creates a Redis client and blocks until it answers PING, retrying
// with exponential backoff until ConnectTimeout elapses.
func New(opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		log.Error("invalid redis connect options", logger.Error(err))
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	if err := waitForRedis(client, opts, log); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// waitForRedis pings until success or until the overall deadline passes.
func waitForRedis(p pinger, opts ConnectOptions, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis",
		logger.String("addr", opts.Addr),
		logger.Duration("timeout", opts.ConnectTimeout))

	started := time.Now()
	wait := opts.RetryInterval
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := p.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			fields := []logger.Field{logger.String("addr", opts.Addr)}
			if attempt > 1 {
				fields = append(fields, logger.Int("attempts", attempt), logger.Duration("elapsed", time.Since(started)))
			}
			log.Info("connected to redis", fields...)
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis unavailable - giving up",
				logger.String("addr", opts.Addr),
				logger.Int("attempts", attempt),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				opts.Addr, attempt, opts.ConnectTimeout, err)
		case <-timer.C:
		}

		fields := []logger.Field{
			logger.String("addr", opts.Addr),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err),
		}
		if attempt <= opts.WarnThreshold {
			log.Warn("redis connection failed, retrying", fields...)
		} else {
			log.Error("redis still unavailable, retrying", fields...)
		}

		wait *= 2
		if wait > opts.MaxWait {
			wait = opts.MaxWait
		}
	}
}
