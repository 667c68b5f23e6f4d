package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeTempConfig(t, "debug: false\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address != DefaultAddress {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, DefaultAddress)
	}
	if len(cfg.Posting.SlotTimes) != 6 {
		t.Errorf("len(SlotTimes) = %d, want 6", len(cfg.Posting.SlotTimes))
	}
	if cfg.Posting.LowWaterMark != 3 {
		t.Errorf("LowWaterMark = %d, want 3", cfg.Posting.LowWaterMark)
	}
	if cfg.Scanning.AdapterTimeout != 30*time.Second {
		t.Errorf("AdapterTimeout = %v, want 30s", cfg.Scanning.AdapterTimeout)
	}
	if cfg.Scanning.RetryAttempts != 3 {
		t.Errorf("RetryAttempts = %d, want 3", cfg.Scanning.RetryAttempts)
	}
}

func TestLoadDebugFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected bool
	}{
		{"true from env", "true", true},
		{"1 from env", "1", true},
		{"yes from env", "yes", true},
		{"false from env", "false", false},
		{"0 from env", "0", false},
	}

	path := writeTempConfig(t, "debug: false\n")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_DEBUG", tt.envValue)

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Debug != tt.expected {
				t.Errorf("Debug = %v, want %v (APP_DEBUG=%q)", cfg.Debug, tt.expected, tt.envValue)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
database:
  host: filehost
redis:
  addr: fileredis:6379
`)

	t.Setenv("POSTGRES_HOST", "envhost")
	t.Setenv("REDIS_ADDR", "envredis:6379")
	t.Setenv("ADMIN_TOKEN", "envtoken")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Host != "envhost" {
		t.Errorf("Database.Host = %q, want envhost", cfg.Database.Host)
	}
	if cfg.Redis.Addr != "envredis:6379" {
		t.Errorf("Redis.Addr = %q, want envredis:6379", cfg.Redis.Addr)
	}
	if cfg.Admin.Token != "envtoken" {
		t.Errorf("Admin.Token = %q, want envtoken", cfg.Admin.Token)
	}
}

func TestValidateRejectsBadSlotTimes(t *testing.T) {
	path := writeTempConfig(t, `
posting:
  slot_times: ["07:00", "25:99"]
`)

	if _, err := Load(path); err == nil {
		t.Error("Load() should reject malformed slot times")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yml"); err == nil {
		t.Error("Load() should fail for a missing file path")
	}
}
