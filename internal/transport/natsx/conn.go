// Package natsx carries chat commands, replies and notifications over NATS.
package natsx

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Conn is the subset of a NATS connection the adapters use.
type Conn interface {
	Publish(subject string, data []byte, headers map[string]string) error
	// QueueSubscribe returns a function that drains the subscription. The
	// function returns once every message already received has been passed
	// to handler and the subscription is closed.
	QueueSubscribe(subject, queue string, handler nats.MsgHandler) (func() error, error)
}

// Subjects derives the subjects used under a common prefix.
type Subjects struct {
	Prefix string
}

func (s Subjects) Commands() string      { return s.Prefix + ".commands" }
func (s Subjects) Replies() string       { return s.Prefix + ".replies" }
func (s Subjects) Notifications() string { return s.Prefix + ".notifications" }

// DefaultDrainTimeout matches the nats.go client default.
const DefaultDrainTimeout = 30 * time.Second

const drainPoll = 10 * time.Millisecond

var errDrainTimeout = errors.New("nats: drain timeout")

type Config struct {
	URL           string
	Name          string
	ConnTimeout   time.Duration
	MaxReconnects int
	DrainTimeout  time.Duration
}

type natsConn struct {
	nc           *nats.Conn
	drainTimeout time.Duration
}

func (c natsConn) Publish(subject string, data []byte, headers map[string]string) error {
	msg := &nats.Msg{Subject: subject, Data: data}
	if len(headers) > 0 {
		msg.Header = nats.Header{}
		for k, v := range headers {
			msg.Header.Add(k, v)
		}
	}
	return c.nc.PublishMsg(msg)
}

func (c natsConn) QueueSubscribe(subject, queue string, handler nats.MsgHandler) (func() error, error) {
	sub, err := c.nc.QueueSubscribe(subject, queue, handler)
	if err != nil {
		return nil, err
	}
	return func() error {
		if err := sub.Drain(); err != nil {
			return err
		}
		return waitDrained(sub.IsValid, c.drainTimeout)
	}, nil
}

// waitDrained polls until valid reports false. Subscription.Drain only
// starts the drain; the subscription stays valid until its last callback
// has returned.
func waitDrained(valid func() bool, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(drainPoll)
	defer tick.Stop()

	for valid() {
		select {
		case <-tick.C:
		case <-deadline.C:
			return errDrainTimeout
		}
	}
	return nil
}

// Connect dials NATS and returns the connection with a cleanup that drains it.
func Connect(cfg Config) (Conn, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("nats url required")
	}

	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	closed := make(chan struct{})
	opts := []nats.Option{
		nats.DrainTimeout(cfg.DrainTimeout),
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.ConnTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnTimeout))
	}
	if cfg.MaxReconnects != 0 {
		opts = append(opts, nats.MaxReconnects(cfg.MaxReconnects))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	// Conn.Drain is asynchronous and closes the connection when done, so
	// wait for the closed callback instead of closing under it.
	cleanup := func() {
		if nc.IsClosed() {
			return
		}
		if err := nc.Drain(); err != nil {
			nc.Close()
			return
		}
		select {
		case <-closed:
		case <-time.After(cfg.DrainTimeout + time.Second):
			nc.Close()
		}
	}
	return natsConn{nc: nc, drainTimeout: cfg.DrainTimeout}, cleanup, nil
}
