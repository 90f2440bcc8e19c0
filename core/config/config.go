package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel      OTelConfig
	Redis     RedisConfig
	Realtime  RealtimeConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Env       string
	Port      string
	NodeID    int64
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
	SampleRatio    float64 // fraction of root traces kept, 1 keeps all
}

// RedisConfig points at the shared key-value store. An empty URL runs the
// service on the in-memory store only.
type RedisConfig struct {
	URL           string
	MaxRetries    int
	RetryDelay    time.Duration
	HealthEvery   time.Duration
	DialTimeout   time.Duration
	OperationTime time.Duration
}

type RealtimeConfig struct {
	PollInterval   time.Duration
	HeartbeatEvery int // heartbeat is sent on every Nth poll tick
	PresenceTTL    time.Duration
	MaxLifetime    time.Duration
	PublishTimeout time.Duration
}

type SessionConfig struct {
	TTL          time.Duration
	SecureCookie bool
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWatch  ServiceType = "watch"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the API server
//   - .env.watch for the stream watcher CLI
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("SAATHI_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	env := getEnv("SAATHI_ENV", "development")
	cfg := Config{
		Env:    env,
		Port:   getEnv("PORT", "8080"),
		NodeID: int64(getEnvInt("NODE_ID", 1)),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "saathi"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			SampleRatio:    getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		},
		Redis: RedisConfig{
			URL:           getEnv("REDIS_URL", ""),
			MaxRetries:    getEnvInt("REDIS_MAX_RETRIES", 2),
			RetryDelay:    getEnvDuration("REDIS_RETRY_DELAY", 500*time.Millisecond),
			HealthEvery:   getEnvDuration("REDIS_HEALTH_INTERVAL", 30*time.Second),
			DialTimeout:   getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			OperationTime: getEnvDuration("REDIS_OPERATION_TIMEOUT", 3*time.Second),
		},
		Realtime: RealtimeConfig{
			PollInterval:   getEnvDuration("REALTIME_POLL_INTERVAL", time.Second),
			HeartbeatEvery: getEnvInt("REALTIME_HEARTBEAT_EVERY", 10),
			PresenceTTL:    getEnvDuration("REALTIME_PRESENCE_TTL", 300*time.Second),
			MaxLifetime:    getEnvDuration("REALTIME_MAX_LIFETIME", 30*time.Minute),
			PublishTimeout: getEnvDuration("REALTIME_PUBLISH_TIMEOUT", 5*time.Second),
		},
		Session: SessionConfig{
			TTL:          getEnvDuration("SESSION_TTL", 24*time.Hour),
			SecureCookie: env == "production",
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
			RPS:     getEnvFloat("RATE_LIMIT_RPS", 5),
			Burst:   getEnvInt("RATE_LIMIT_BURST", 20),
		},
	}

	if serviceType == ServiceTypeServer && cfg.IsProduction() && cfg.Redis.URL == "" {
		return Config{}, fmt.Errorf("REDIS_URL is required in production")
	}

	if cfg.Realtime.HeartbeatEvery <= 0 {
		return Config{}, fmt.Errorf("REALTIME_HEARTBEAT_EVERY must be positive")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
