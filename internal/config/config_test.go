package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/billing-service/internal/billing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"STORE_DRIVER":             "memory",
		"REDIS_URL":                "",
		"BILLING_UNRESOLVED_ITEMS": "",
		"CONFIRM_LOCK_TTL":         "",
		"PORT":                     "",
	})
	require.NoError(t, err)
	require.Equal(t, DriverMemory, cfg.StoreDriver)
	require.Equal(t, billing.UnresolvedReject, cfg.UnresolvedItems)
	require.Equal(t, 10*time.Second, cfg.ConfirmLockTTL)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.False(t, cfg.RedisEnabled())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"STORE_DRIVER":             "mongo",
		"MONGO_URI":                "mongodb://localhost:27017",
		"BILLING_UNRESOLVED_ITEMS": "skip",
		"CORS_ALLOWED_ORIGINS":     "https://a.example, https://b.example",
		"HTTP_BODY_LIMIT_BYTES":    "2048",
		"CONFIRM_LOCK_TTL":         "3s",
		"MIGRATE_ON_START":         "yes",
	})
	require.NoError(t, err)
	require.Equal(t, billing.UnresolvedSkip, cfg.UnresolvedItems)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, int64(2048), cfg.HTTPBodyLimitBytes)
	require.Equal(t, 3*time.Second, cfg.ConfirmLockTTL)
	require.True(t, cfg.MigrateOnStart)
}

func TestLoadValidates(t *testing.T) {
	_, err := LoadForTests(map[string]string{"STORE_DRIVER": "postgres", "DATABASE_URL": ""})
	require.ErrorContains(t, err, "DATABASE_URL")

	_, err = LoadForTests(map[string]string{"STORE_DRIVER": "mongo", "MONGO_URI": ""})
	require.ErrorContains(t, err, "MONGO_URI")

	_, err = LoadForTests(map[string]string{"STORE_DRIVER": "sqlite"})
	require.ErrorContains(t, err, "STORE_DRIVER")

	_, err = LoadForTests(map[string]string{"STORE_DRIVER": "memory", "BILLING_UNRESOLVED_ITEMS": "ignore"})
	require.ErrorContains(t, err, "BILLING_UNRESOLVED_ITEMS")
}

func TestLoadReceiptWebhook(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"STORE_DRIVER":                  "memory",
		"RECEIPT_WEBHOOK_URL":           " https://hooks.example/receipts ",
		"RECEIPT_WEBHOOK_ATTEMPTS":      "",
		"RECEIPT_BREAKER_FAILURE_RATIO": "0.25",
		"RECEIPT_BREAKER_OPEN_FOR":      "bogus",
	})
	require.NoError(t, err)
	require.Equal(t, "https://hooks.example/receipts", cfg.ReceiptWebhookURL)
	require.Equal(t, 3, cfg.ReceiptWebhookAttempts)
	require.Equal(t, 0.25, cfg.ReceiptBreakerRatio)
	require.Equal(t, 30*time.Second, cfg.ReceiptBreakerOpenFor)
}
