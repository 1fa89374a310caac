package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/weave-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("SSE_IDLE_TIMEOUT", "")
	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.Stream.IdleTimeout != 30*time.Minute || cfg.Redis.Channel != "weave:stream" {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.Redis.PublishTimeout != 250*time.Millisecond {
		t.Fatalf("publish timeout default: %v", cfg.Redis.PublishTimeout)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weave.yaml")
	body := []byte(`
server:
  addr: ":9090"
  cors_origins: ["https://app.weave.chat"]
stream:
  idle_timeout: 5m
  buffer: 8
database:
  driver: sqlite
rate_limit:
  rps: 2
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("SSE_IDLE_TIMEOUT", "")
	t.Setenv("SSE_BUFFER", "16")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("RATE_LIMIT_RPS", "")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.DB.Driver != "sqlite" || cfg.RateLimit.RPS != 2 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Stream.IdleTimeout != 5*time.Minute {
		t.Fatalf("idle timeout: %s", cfg.Stream.IdleTimeout)
	}
	if cfg.Stream.Buffer != 16 {
		t.Fatalf("env should override file buffer, got %d", cfg.Stream.Buffer)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://app.weave.chat" {
		t.Fatalf("cors origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadConfigBadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("missing config file should fail")
	}
}
