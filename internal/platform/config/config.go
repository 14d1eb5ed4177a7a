package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything main needs to wire the platform.
type Config struct {
	Addr          string
	JWTSigningKey string
	TokenTTL      time.Duration

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig

	// DisburseWorkers bounds parallel settlement during bulk disbursement.
	DisburseWorkers int
}

// RedisConfig tunes the document store backend. An empty URL selects the
// in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig enables the transaction archive when a DSN is set.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig enables the transaction-log publisher when brokers are set.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("SAHAKOSH_ADDR", ":8080"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:        envDurationOr("TOKEN_TTL", time.Hour),
		DisburseWorkers: envIntOr("DISBURSE_WORKERS", 8),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Topic: envOr("TXLOG_TOPIC", "sahakosh.transactions"),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
