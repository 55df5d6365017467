package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Notifier   NotifierConfig
	Snapshot   SnapshotConfig
	Categories []CategorySeed
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN switches the
// service to the in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables the
// cross-instance event relay.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// NotifierConfig tunes the pub/sub hub and the event stream endpoint.
type NotifierConfig struct {
	QueueSize        int
	SweepSeconds     int
	HeartbeatSeconds int
}

// SnapshotConfig controls the periodic latest-ticket snapshot publisher.
type SnapshotConfig struct {
	IntervalSeconds int
}

// CategorySeed is one category for the in-memory directory, parsed from
// QUEUE_CATEGORIES ("Name:PREFIX,Name:PREFIX,...").
type CategorySeed struct {
	Name   string
	Prefix string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	categories, err := ParseCategories(getEnv("QUEUE_CATEGORIES", "Computer Science:CS,Engineering:ENG,Registrar:REG"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_CATEGORIES: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "queueing-system"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Channel:  getEnv("REDIS_EVENT_CHANNEL", "queue.events"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Notifier: NotifierConfig{
			QueueSize:        getEnvAsInt("NOTIFIER_QUEUE_SIZE", 16),
			SweepSeconds:     getEnvAsInt("NOTIFIER_SWEEP_SECONDS", 30),
			HeartbeatSeconds: getEnvAsInt("NOTIFIER_HEARTBEAT_SECONDS", 15),
		},
		Snapshot: SnapshotConfig{
			IntervalSeconds: getEnvAsInt("SNAPSHOT_INTERVAL_SECONDS", 30),
		},
		Categories: categories,
	}

	return cfg, nil
}

// ParseCategories parses a "Name:PREFIX,Name:PREFIX" list.
func ParseCategories(raw string) ([]CategorySeed, error) {
	var seeds []CategorySeed
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, prefix, ok := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		prefix = strings.TrimSpace(prefix)
		if !ok || name == "" || prefix == "" {
			return nil, fmt.Errorf("malformed category entry %q", part)
		}
		seeds = append(seeds, CategorySeed{Name: name, Prefix: prefix})
	}
	return seeds, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SweepInterval returns the hub janitor interval.
func (n NotifierConfig) SweepInterval() time.Duration {
	if n.SweepSeconds <= 0 {
		return 0
	}
	return time.Duration(n.SweepSeconds) * time.Second
}

// Heartbeat returns the event stream keepalive interval.
func (n NotifierConfig) Heartbeat() time.Duration {
	if n.HeartbeatSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(n.HeartbeatSeconds) * time.Second
}

// Interval returns the snapshot publish interval.
func (s SnapshotConfig) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
