package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Notification transports.
const (
	NotifyLog   = "log"
	NotifyNATS  = "nats"
	NotifyAMQP  = "amqp"
	NotifyKafka = "kafka"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Identity       string        // sender address used for replies and notifications
	Store          string        // "memory" | "redis"
	SeedFile       string        // optional YAML with statuses and services, empty = disabled
	ReloadInterval time.Duration // interval to re-apply the seed file, 0 = manual only

	// Notifications
	NotifyTransport     string        // "log" | "nats" | "amqp" | "kafka"
	DeliveryTimeout     time.Duration // per-recipient delivery timeout
	DeliveryConcurrency int           // parallel deliveries per change
	CommandConcurrency  int           // parallel chat commands handled from NATS

	// NATS, used for inbound commands when NATSURL is set and for notifications
	NATSURL           string
	NATSSubjectPrefix string
	NATSQueue         string

	// AMQP
	AMQPURL      string
	AMQPExchange string

	// Kafka
	KafkaBrokers []string
	KafkaTopic   string

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	APIToken     string   // optional shared secret for mutating API routes
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("STASHBOARD_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("STASHBOARD_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("STASHBOARD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("STASHBOARD_PRETTY_LOG", false),

		Identity:       getenv("STASHBOARD_IDENTITY", "stashboard"),
		Store:          oneOf("STASHBOARD_STORE", StoreMemory, StoreMemory, StoreRedis),
		SeedFile:       getenv("STASHBOARD_SEED_FILE", ""),
		ReloadInterval: mustDuration("STASHBOARD_RELOAD_INTERVAL", 0),

		NotifyTransport:     oneOf("STASHBOARD_NOTIFY_TRANSPORT", NotifyLog, NotifyLog, NotifyNATS, NotifyAMQP, NotifyKafka),
		DeliveryTimeout:     mustDuration("STASHBOARD_DELIVERY_TIMEOUT", 5*time.Second),
		DeliveryConcurrency: getenvInt("STASHBOARD_DELIVERY_CONCURRENCY", 8),
		CommandConcurrency:  getenvInt("STASHBOARD_COMMAND_CONCURRENCY", 16),

		NATSURL:           getenv("STASHBOARD_NATS_URL", ""),
		NATSSubjectPrefix: getenv("STASHBOARD_NATS_SUBJECT_PREFIX", "stashboard"),
		NATSQueue:         getenv("STASHBOARD_NATS_QUEUE", "stashboard"),

		AMQPURL:      getenv("STASHBOARD_AMQP_URL", ""),
		AMQPExchange: getenv("STASHBOARD_AMQP_EXCHANGE", "stashboard.notifications"),

		KafkaBrokers: splitAndTrim(getenv("STASHBOARD_KAFKA_BROKERS", "")),
		KafkaTopic:   getenv("STASHBOARD_KAFKA_TOPIC", "stashboard-notifications"),

		// Redis settings
		RedisAddr:             getenv("STASHBOARD_REDIS_ADDR", ""),
		RedisUser:             getenv("STASHBOARD_REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("STASHBOARD_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("STASHBOARD_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("STASHBOARD_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		APIToken:     getenv("STASHBOARD_API_TOKEN", ""),
		AllowedCIDRS: parseAllowedIPs(getenv("STASHBOARD_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("STASHBOARD_TRUST_PROXY", false),
	}

	if cfg.Store == StoreRedis {
		cfg.RedisAddr = requireEnv("STASHBOARD_REDIS_ADDR")
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: STASHBOARD_REDIS_PASSWORD is required when STASHBOARD_REDIS_PASSWORD_REQUIRED=true")
		}
	}

	switch cfg.NotifyTransport {
	case NotifyNATS:
		cfg.NATSURL = requireEnv("STASHBOARD_NATS_URL")
	case NotifyAMQP:
		cfg.AMQPURL = requireEnv("STASHBOARD_AMQP_URL")
	case NotifyKafka:
		cfg.KafkaBrokers = requireEnvSlice("STASHBOARD_KAFKA_BROKERS")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	const mask = "***REDACTED***"
	if c.RedisPassword != "" {
		c.RedisPassword = mask
	}
	if c.APIToken != "" {
		c.APIToken = mask
	}
	if c.AMQPURL != "" {
		c.AMQPURL = mask
	}
	return c
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvSlice(key string) []string {
	parts := splitAndTrim(os.Getenv(key))
	if len(parts) == 0 {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return parts
}

// oneOf returns the lower-cased value of key, panicking if it is not allowed.
func oneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(getenv(key, def))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	panic(fmt.Sprintf("❌ FATAL: Invalid value for %s: %q (allowed: %s)", key, v, strings.Join(allowed, ", ")))
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
