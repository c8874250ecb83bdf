package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jamezpolley/stashboard/internal/logger"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (f *flakyPinger) Ping(ctx context.Context) *redis.StatusCmd {
	f.calls++
	cmd := redis.NewStatusCmd(ctx)
	if f.calls <= f.failures {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}

func testOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "test",
		ConnectTimeout: 2 * time.Second,
		RetryInterval:  time.Millisecond,
		MaxWait:        4 * time.Millisecond,
		PingTimeout:    100 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestWaitForRedisRetries(t *testing.T) {
	p := &flakyPinger{failures: 3}
	if err := waitForRedis(p, testOptions(), logger.New("error", false)); err != nil {
		t.Fatalf("waitForRedis() error = %v", err)
	}
	if p.calls != 4 {
		t.Errorf("ping called %d times, want 4", p.calls)
	}
}

func TestWaitForRedisTimeout(t *testing.T) {
	opts := testOptions()
	opts.ConnectTimeout = 20 * time.Millisecond
	p := &flakyPinger{failures: 1 << 30}

	err := waitForRedis(p, opts, logger.New("error", false))
	if err == nil {
		t.Fatal("waitForRedis() should fail when redis never answers")
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"zero retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"zero max wait", func(o *ConnectOptions) { o.MaxWait = 0 }},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{"negative warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)
			if err := opts.validate(); err == nil {
				t.Error("validate() should fail")
			}
		})
	}
}

func TestNewConnectsToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := testOptions()
	opts.Addr = mr.Addr()

	client, err := New(opts, logger.New("error", false))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Errorf("client not usable: %v", err)
	}
}
