package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider.Name != "coingecko" {
		t.Errorf("Provider.Name = %q, want coingecko", cfg.Provider.Name)
	}
	if cfg.Market.HistoryDays != 90 || cfg.Market.HorizonDays != 30 || cfg.Market.TopN != 10 {
		t.Errorf("Market defaults = %+v", cfg.Market)
	}
	if cfg.Schedule.RefreshCron != "0 */30 * * * *" {
		t.Errorf("RefreshCron = %q", cfg.Schedule.RefreshCron)
	}
	if cfg.Provider.Timeout != 30*time.Second {
		t.Errorf("Provider.Timeout = %v, want 30s", cfg.Provider.Timeout)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should default to true")
	}
	if cfg.Cache.MaxEntries != 1000 || cfg.Cache.CleanupInterval != 5*time.Minute {
		t.Errorf("Cache sizing = %d / %v", cfg.Cache.MaxEntries, cfg.Cache.CleanupInterval)
	}
	if cfg.Server.RateLimit.Capacity != 5 || cfg.Server.RateLimit.RefillPerSec != 0.2 {
		t.Errorf("Server.RateLimit = %+v", cfg.Server.RateLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeTempFile(t, `
provider:
  name: yahoo
  timeout: 5s
market:
  top_n: 25
  seed: 7
cache:
  enabled: false
  ttl: 1m
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider.Name != "yahoo" {
		t.Errorf("Provider.Name = %q, want yahoo", cfg.Provider.Name)
	}
	if cfg.Provider.Timeout != 5*time.Second {
		t.Errorf("Provider.Timeout = %v, want 5s", cfg.Provider.Timeout)
	}
	if cfg.Market.TopN != 25 || cfg.Market.Seed != 7 {
		t.Errorf("Market = %+v", cfg.Market)
	}
	if cfg.Market.HorizonDays != 30 {
		t.Errorf("HorizonDays = %d, want default 30", cfg.Market.HorizonDays)
	}
	if cfg.Cache.Enabled {
		t.Error("explicit cache.enabled=false was overwritten")
	}
	if cfg.Cache.TTL != time.Minute {
		t.Errorf("Cache.TTL = %v, want 1m", cfg.Cache.TTL)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("COINGECKO_API_KEY", "cg-key")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load(writeTempFile(t, "provider:\n  api_key: from-file\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider.APIKey != "cg-key" {
		t.Errorf("APIKey = %q, want cg-key", cfg.Provider.APIKey)
	}
	if !cfg.TelegramEnabled() {
		t.Error("telegram should be enabled")
	}
	if !cfg.Cache.Redis.Enabled || cfg.Cache.Redis.Addr != "redis:6379" {
		t.Errorf("Redis = %+v", cfg.Cache.Redis)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeTempFile(t, "provider: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown provider", func(c *Config) { c.Provider.Name = "binance" }, true},
		{"zero top_n", func(c *Config) { c.Market.TopN = 0 }, true},
		{"horizon too long", func(c *Config) { c.Market.HorizonDays = 365 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"telegram token without chat", func(c *Config) { c.Telegram.BotToken = "x" }, true},
	}
	for _, tt := range tests {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		if err != nil {
			t.Fatalf("%s: Load failed: %v", tt.name, err)
		}
		tt.mutate(cfg)
		if err := cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
