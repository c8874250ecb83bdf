// Package rabbitmq publishes notifications to an AMQP exchange, routed by
// subscriber address.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jamezpolley/stashboard/internal/wire"
)

const exchangeKind = "topic"

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Config struct {
	URL         string
	Exchange    string
	ConnTimeout time.Duration
}

type Publisher struct {
	ch       Channel
	exchange string
	identity string
}

func New(ch Channel, exchange, identity string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, identity: identity}
}

func (p *Publisher) Name() string { return "amqp" }

// Deliver publishes one persistent notification with the address as routing key.
func (p *Publisher) Deliver(ctx context.Context, address, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := wire.New(wire.KindNotification, p.identity, address, message)
	body, err := wire.Encode(env)
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, address, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/msgpack",
		MessageId:    env.ID,
		Timestamp:    env.SentAt,
		Body:         body,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("amqp publish to %q: %w", p.exchange, err)
	}
	return nil
}

// Dial connects, declares the exchange and returns a publisher with a cleanup.
func Dial(cfg Config, identity string) (*Publisher, func(), error) {
	if cfg.URL == "" {
		return nil, nil, errors.New("amqp url required")
	}

	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Properties: amqp.Table{"product": "stashboard"},
		Dial:       amqp.DefaultDial(cfg.ConnTimeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp declare exchange %q: %w", cfg.Exchange, err)
	}

	cleanup := func() {
		_ = ch.Close()
		_ = conn.Close()
	}
	return New(ch, cfg.Exchange, identity), cleanup, nil
}
