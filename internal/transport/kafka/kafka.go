// Package kafka produces notifications to a Kafka topic keyed by subscriber
// address, so one subscriber's notifications stay ordered in a partition.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/jamezpolley/stashboard/internal/wire"
)

// Producer is the subset of *kgo.Client used for publishing.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
}

type Publisher struct {
	producer Producer
	topic    string
	identity string
}

func New(p Producer, topic, identity string) *Publisher {
	return &Publisher{producer: p, topic: topic, identity: identity}
}

func (p *Publisher) Name() string { return "kafka" }

func (p *Publisher) Deliver(ctx context.Context, address, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := wire.New(wire.KindNotification, p.identity, address, message)
	value, err := wire.Encode(env)
	if err != nil {
		return err
	}

	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(address),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "id", Value: []byte(env.ID)},
			{Key: "kind", Value: []byte(env.Kind)},
		},
	}
	if err := p.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("kafka produce to %q: %w", p.topic, err)
	}
	return nil
}

// Connect builds a franz-go client. The cleanup closes it.
func Connect(cfg Config, identity string) (*Publisher, func(), error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil, errors.New("kafka brokers required")
	}
	if cfg.Topic == "" {
		return nil, nil, errors.New("kafka topic required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka client init: %w", err)
	}
	return New(cl, cfg.Topic, identity), cl.Close, nil
}
