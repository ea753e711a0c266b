package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/traceleaf/dpp-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("http addr: got %q", cfg.HTTPAddr)
	}
	if cfg.Webhooks.QueueMode != "memory" {
		t.Fatalf("queue mode: got %q", cfg.Webhooks.QueueMode)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("access ttl: got %v", cfg.AccessTokenTTL)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("http_addr: \":9090\"\nwebhooks:\n  queue_mode: redis\n  disable_after: 5\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("WEBHOOK_QUEUE_MODE", "memory")

	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("file http addr not applied: got %q", cfg.HTTPAddr)
	}
	if cfg.Webhooks.DisableAfter != 5 {
		t.Fatalf("file disable_after not applied: got %d", cfg.Webhooks.DisableAfter)
	}
	if cfg.Webhooks.QueueMode != "memory" {
		t.Fatalf("env did not override file queue mode: got %q", cfg.Webhooks.QueueMode)
	}
}

func TestLoadConfigRejectsUnknownQueueMode(t *testing.T) {
	t.Setenv("WEBHOOK_QUEUE_MODE", "kafka")
	if _, err := LoadConfig(testLogger(t)); err == nil {
		t.Fatal("expected error for unknown queue mode")
	}
}
