package config

import (
	"testing"
	"time"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("MAX_CONCURRENCY", "8")
	t.Setenv("PAGE_TIMEOUT_SEC", "30")
	t.Setenv("RATE_LIMIT_MS", "not-a-number")

	cfg := Load()
	if cfg.PostgresHost != "db.internal" {
		t.Errorf("PostgresHost: got %q, want db.internal", cfg.PostgresHost)
	}
	if cfg.MaxConcurrency != 8 {
		t.Errorf("MaxConcurrency: got %d, want 8", cfg.MaxConcurrency)
	}
	if cfg.RateLimitMs != 1000 {
		t.Errorf("RateLimitMs: got %d, want fallback 1000", cfg.RateLimitMs)
	}
	if cfg.PageTimeout() != 30*time.Second {
		t.Errorf("PageTimeout: got %v, want 30s", cfg.PageTimeout())
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "localhost", PostgresPort: "5432", PostgresUser: "cro",
		PostgresPassword: "secret", PostgresDB: "cro_audit", PostgresSSLMode: "disable",
	}
	want := "host=localhost port=5432 user=cro password=secret dbname=cro_audit sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
