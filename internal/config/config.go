package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Providers struct {
		AlphaVantage struct {
			APIKey         string        `yaml:"api_key"`
			BaseURL        string        `yaml:"base_url"`
			Timeout        time.Duration `yaml:"timeout"`
			CallsPerMinute int           `yaml:"calls_per_minute"` // 0 means 5, negative disables limiting
		} `yaml:"alpha_vantage"`
		Yahoo struct {
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"yahoo"`
		Proxy string `yaml:"proxy"`
	} `yaml:"providers"`
	Cache struct {
		Backend    string        `yaml:"backend"`
		TTL        time.Duration `yaml:"ttl"`
		SQLitePath string        `yaml:"sqlite_path"`
		RedisAddr  string        `yaml:"redis_addr"`
	} `yaml:"cache"`
	Inputs struct {
		File string `yaml:"file"`
	} `yaml:"inputs"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Watch struct {
		Cron        string `yaml:"cron"`
		Ticker      string `yaml:"ticker"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"watch"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load reads config from a YAML file, loads a .env file if present, applies
// environment variable overrides and fills defaults. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Providers.Proxy = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Cache.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("WATCH_CRON"); v != "" {
		cfg.Watch.Cron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("INPUTS_FILE"); v != "" {
		cfg.Inputs.File = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_CALLS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Providers.AlphaVantage.CallsPerMinute = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Providers.AlphaVantage.BaseURL == "" {
		cfg.Providers.AlphaVantage.BaseURL = "https://www.alphavantage.co"
	}
	if cfg.Providers.AlphaVantage.Timeout == 0 {
		cfg.Providers.AlphaVantage.Timeout = 15 * time.Second
	}
	if cfg.Providers.AlphaVantage.CallsPerMinute == 0 {
		cfg.Providers.AlphaVantage.CallsPerMinute = 5
	}
	if cfg.Providers.Yahoo.BaseURL == "" {
		cfg.Providers.Yahoo.BaseURL = "https://query2.finance.yahoo.com"
	}
	if cfg.Providers.Yahoo.Timeout == 0 {
		cfg.Providers.Yahoo.Timeout = 30 * time.Second
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Cache.SQLitePath == "" {
		cfg.Cache.SQLitePath = "data/stockcheck_cache.db"
	}
	if cfg.Cache.RedisAddr == "" {
		cfg.Cache.RedisAddr = "localhost:6379"
	}
	if cfg.Inputs.File == "" {
		cfg.Inputs.File = "user_inputs.json"
	}
	if cfg.Watch.Cron == "" {
		cfg.Watch.Cron = "0 30 16 * * 1-5"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks values that every command depends on.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "none", "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("cache.backend must be one of none, memory, sqlite, redis; got %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Providers.AlphaVantage.Timeout <= 0 || c.Providers.Yahoo.Timeout <= 0 {
		return fmt.Errorf("provider timeouts must be positive")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json; got %q", c.Logging.Format)
	}
	return nil
}

// ValidateTelegram checks the fields needed to deliver reports.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}

// TelegramEnabled reports whether both Telegram fields are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
