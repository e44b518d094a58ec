package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/billing-service/internal/billing"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	StoreDriver        string
	DatabaseURL        string
	DBMaxConns         int
	MigrateOnStart     bool
	MongoURI           string
	MongoDatabase      string
	RedisURL           string
	CORSAllowedOrigins []string

	CatalogCacheTTL    time.Duration
	IdempotencyTTL     time.Duration
	ConfirmLockTTL     time.Duration
	ConfirmLockWait    time.Duration
	UnresolvedItems    billing.UnresolvedPolicy
	RateLimit          string
	HTTPBodyLimitBytes int64
	ShutdownTimeout    time.Duration

	LogFormat          string
	LogLevel           string
	MetricsNamespace   string
	TracingEnabled     bool
	OTLPEndpoint       string
	TracingSampleRatio float64

	TaskQueue         string
	TaskMaxRetry      int
	WorkerConcurrency int

	ReceiptWebhookURL      string
	ReceiptWebhookTimeout  time.Duration
	ReceiptWebhookAttempts int
	ReceiptBreakerMinReq   int
	ReceiptBreakerRatio    float64
	ReceiptBreakerOpenFor  time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		StoreDriver:        strings.ToLower(valueOrDefault(k.String("STORE_DRIVER"), DriverPostgres)),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		DBMaxConns:         parseInt(k.String("DB_MAX_CONNS"), 10),
		MigrateOnStart:     parseBool(k.String("MIGRATE_ON_START")),
		MongoURI:           strings.TrimSpace(k.String("MONGO_URI")),
		MongoDatabase:      valueOrDefault(k.String("MONGO_DATABASE"), "bill_system"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CatalogCacheTTL:    parseDuration(k.String("CATALOG_CACHE_TTL"), "1m"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		ConfirmLockTTL:     parseDuration(k.String("CONFIRM_LOCK_TTL"), "10s"),
		ConfirmLockWait:    parseDuration(k.String("CONFIRM_LOCK_WAIT"), "2s"),
		RateLimit:          valueOrDefault(k.String("RATE_LIMIT"), "60-M"),
		HTTPBodyLimitBytes: int64(parseInt(k.String("HTTP_BODY_LIMIT_BYTES"), 1<<20)),
		ShutdownTimeout:    parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),
		LogFormat:          valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:   valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "billing"),
		TracingEnabled:     parseBool(k.String("OBS_TRACING_ENABLED")),
		OTLPEndpoint:       strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		TracingSampleRatio: parseFloat(k.String("OBS_TRACING_SAMPLE_RATIO"), 1),
		TaskQueue:          valueOrDefault(k.String("TASK_QUEUE"), "billing"),
		TaskMaxRetry:       parseInt(k.String("TASK_MAX_RETRY"), 5),
		WorkerConcurrency:  parseInt(k.String("WORKER_CONCURRENCY"), 10),

		ReceiptWebhookURL:      strings.TrimSpace(k.String("RECEIPT_WEBHOOK_URL")),
		ReceiptWebhookTimeout:  parseDuration(k.String("RECEIPT_WEBHOOK_TIMEOUT"), "5s"),
		ReceiptWebhookAttempts: parseInt(k.String("RECEIPT_WEBHOOK_ATTEMPTS"), 3),
		ReceiptBreakerMinReq:   parseInt(k.String("RECEIPT_BREAKER_MIN_REQUESTS"), 10),
		ReceiptBreakerRatio:    parseFloat(k.String("RECEIPT_BREAKER_FAILURE_RATIO"), 0.5),
		ReceiptBreakerOpenFor:  parseDuration(k.String("RECEIPT_BREAKER_OPEN_FOR"), "30s"),
	}

	policy, err := billing.ParseUnresolvedPolicy(k.String("BILLING_UNRESOLVED_ITEMS"))
	if err != nil {
		return nil, fmt.Errorf("BILLING_UNRESOLVED_ITEMS: %w", err)
	}
	cfg.UnresolvedItems = policy

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required")
		}
	case DriverMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("MONGO_URI is required")
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

// RedisEnabled reports whether the Redis backed features are switched on.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
