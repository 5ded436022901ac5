package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iho/finledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.LoadFiles()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.RedisURL != "" {
		t.Fatalf("expected redis to be disabled by default, got %q", cfg.RedisURL)
	}

	if cfg.JWTSecret != "" {
		t.Fatalf("expected bearer auth to be disabled by default")
	}
	if cfg.RateLimitRPS != 0 {
		t.Fatalf("expected rate limiting to be disabled by default, got %v", cfg.RateLimitRPS)
	}

	if cfg.TxTimeout != 10*time.Second || cfg.RetryMaxAttempts != 3 {
		t.Fatalf("unexpected transaction defaults: timeout=%s retries=%d", cfg.TxTimeout, cfg.RetryMaxAttempts)
	}

	if !cfg.OutboxEnabled || cfg.OutboxBatchSize != 100 {
		t.Fatalf("unexpected outbox defaults: enabled=%v batch=%d", cfg.OutboxEnabled, cfg.OutboxBatchSize)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("RATE_LIMIT_RPS", "12.5")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RATE_LIMIT_BURST", "30")
	t.Setenv("OUTBOX_ENABLED", "false")

	cfg, err := config.LoadFiles()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.StorageDriver != config.StorageDriverPostgres {
		t.Fatalf("expected postgres driver by default, got %s", cfg.StorageDriver)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.JWTSecret != "s3cret" {
		t.Fatalf("expected JWT secret override, got %q", cfg.JWTSecret)
	}
	if cfg.RateLimitRPS != 12.5 || cfg.RateLimitBurst != 30 {
		t.Fatalf("expected rate limit override, got rps=%v burst=%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	if cfg.OutboxEnabled {
		t.Fatalf("expected outbox to be disabled")
	}
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("HTTP_PORT=7070\nLOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	t.Setenv("HTTP_PORT", "9191")
	// registered so the value godotenv sets is cleaned up after the test
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := config.LoadFiles(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.HTTPPort != "9191" {
		t.Fatalf("expected environment to win over .env, got %s", cfg.HTTPPort)
	}

	if cfg.LogLevel != "debug" {
		t.Fatalf("expected LOG_LEVEL from .env, got %s", cfg.LogLevel)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"invalid duration", "HTTP_READ_TIMEOUT", "not-a-duration"},
		{"unknown storage driver", "STORAGE_DRIVER", "sqlite"},
		{"negative rate", "RATE_LIMIT_RPS", "-1"},
		{"empty outbox batch", "OUTBOX_BATCH_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := config.LoadFiles(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestValidatePostgresNeedsURL(t *testing.T) {
	cfg := &config.Config{StorageDriver: config.StorageDriverPostgres, OutboxBatchSize: 1}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}
