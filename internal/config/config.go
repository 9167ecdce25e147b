package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"CryptoSentinel/internal/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Provider struct {
		Name       string        `yaml:"name" default:"coingecko" validate:"oneof=coingecko yahoo mock"`
		BaseURL    string        `yaml:"base_url"`
		APIKey     string        `yaml:"api_key"`
		VsCurrency string        `yaml:"vs_currency" default:"usd"`
		Timeout    time.Duration `yaml:"timeout" default:"30s"`
		RateLimit  struct {
			Capacity     float64 `yaml:"capacity" default:"10" validate:"gt=0"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"0.5" validate:"gt=0"`
		} `yaml:"rate_limit"`
	} `yaml:"provider"`
	Market struct {
		TopN        int   `yaml:"top_n" default:"10" validate:"min=1,max=250"`
		HistoryDays int   `yaml:"history_days" default:"90" validate:"min=1,max=365"`
		HorizonDays int   `yaml:"horizon_days" default:"30" validate:"min=1,max=90"`
		Concurrency int   `yaml:"concurrency" default:"4" validate:"min=1,max=64"`
		Seed        int64 `yaml:"seed"` // 0 seeds from the clock
	} `yaml:"market"`
	Cache struct {
		Enabled         bool          `yaml:"enabled" default:"true"`
		TTL             time.Duration `yaml:"ttl" default:"15m"`
		MaxEntries      int           `yaml:"max_entries" default:"1000" validate:"min=1"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"5m"`
		Redis           struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"cryptosentinel"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		// per client IP, for routes that reach the provider
		RateLimit struct {
			Capacity     float64 `yaml:"capacity" default:"5" validate:"gt=0"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"0.2" validate:"gt=0"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" default:"0 */30 * * * *"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/cryptosentinel.db"`
	} `yaml:"database"`
	Log   logger.Config `yaml:"log"`
	Proxy string        `yaml:"proxy"`
}

// Load applies defaults, reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// defaults first so explicit zero values in the file survive
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Enabled = true
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.TopN = n
		}
	}
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether digests and commands are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
