package app

import (
	"errors"
	"time"

	"github.com/jamezpolley/stashboard/internal/config"
	"github.com/jamezpolley/stashboard/internal/httpserver/deps"
	"github.com/jamezpolley/stashboard/internal/logger"
	"github.com/jamezpolley/stashboard/internal/notify"
	"github.com/jamezpolley/stashboard/internal/redis"
	"github.com/jamezpolley/stashboard/internal/registry"
	redisstore "github.com/jamezpolley/stashboard/internal/store/redis"
	"github.com/jamezpolley/stashboard/internal/subscription"
	"github.com/jamezpolley/stashboard/internal/transport/kafka"
	"github.com/jamezpolley/stashboard/internal/transport/logsink"
	"github.com/jamezpolley/stashboard/internal/transport/natsx"
	"github.com/jamezpolley/stashboard/internal/transport/rabbitmq"
	"github.com/jamezpolley/stashboard/internal/utils"
)

const brokerConnectTimeout = 10 * time.Second

type stores struct {
	registry registry.Registry
	subs     subscription.Store
	pinger   deps.Pinger // nil for memory
}

func openStore(cfg *config.Config, log logger.Logger, closers *utils.Closers) (stores, error) {
	if cfg.Store != config.StoreRedis {
		log.Info("using in-memory store, state is lost on restart")
		return stores{registry: registry.NewMemory(), subs: subscription.NewMemory()}, nil
	}

	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if err != nil {
		return stores{}, err
	}
	closers.Add("redis", client.Close)
	log.Info("Redis initialized successfully")

	st := redisstore.NewStore(client)
	return stores{registry: st, subs: st, pinger: st}, nil
}

// connectNATS is only called when a NATS URL is configured. The same
// connection carries inbound commands and, optionally, notifications.
func connectNATS(cfg *config.Config, log logger.Logger, closers *utils.Closers) (natsx.Conn, error) {
	conn, cleanup, err := natsx.Connect(natsx.Config{
		URL:           cfg.NATSURL,
		Name:          cfg.Identity,
		ConnTimeout:   brokerConnectTimeout,
		MaxReconnects: -1,
		DrainTimeout:  cfg.ShutdownTimeout,
	})
	if err != nil {
		return nil, err
	}
	closers.AddFunc("nats", cleanup)
	log.Info("connected to NATS", logger.String("subject_prefix", cfg.NATSSubjectPrefix))
	return conn, nil
}

func openTransport(cfg *config.Config, log logger.Logger, nc natsx.Conn, closers *utils.Closers) (notify.Transport, error) {
	switch cfg.NotifyTransport {
	case config.NotifyNATS:
		if nc == nil {
			return nil, errors.New("nats transport selected without a NATS connection")
		}
		return natsx.NewPublisher(nc, natsx.Subjects{Prefix: cfg.NATSSubjectPrefix}, cfg.Identity), nil

	case config.NotifyAMQP:
		p, cleanup, err := rabbitmq.Dial(rabbitmq.Config{
			URL:         cfg.AMQPURL,
			Exchange:    cfg.AMQPExchange,
			ConnTimeout: brokerConnectTimeout,
		}, cfg.Identity)
		if err != nil {
			return nil, err
		}
		closers.AddFunc("amqp", cleanup)
		return p, nil

	case config.NotifyKafka:
		p, cleanup, err := kafka.Connect(kafka.Config{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			ClientID: cfg.Identity,
		}, cfg.Identity)
		if err != nil {
			return nil, err
		}
		closers.AddFunc("kafka", cleanup)
		return p, nil

	default:
		return logsink.New(log), nil
	}
}
