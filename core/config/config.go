package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Bot API settings that are common for all bots.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	APIURL  string `yaml:"api_url" envconfig:"TELEGRAM_API_URL"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	// PollIntervalSeconds is the sleep between polling ticks; 0 -> default (10s)
	PollIntervalSeconds int `yaml:"poll_interval_seconds" envconfig:"TELEGRAM_POLL_INTERVAL_SECONDS"`
	// LongPollTimeoutSeconds is passed to getUpdates as the long-poll timeout; 0 -> short poll
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// AllowedUpdates restricts the update kinds requested from the API.
	AllowedUpdates []string `yaml:"allowed_updates" envconfig:"TELEGRAM_ALLOWED_UPDATES"`
}

// StateConfig specifies where the persisted bot state document lives.
type StateConfig struct {
	Path string `yaml:"path" envconfig:"STATE_PATH"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// DispatchConfig tunes how matched commands are executed.
type DispatchConfig struct {
	// CommandTimeoutSeconds bounds a single command execution; 0 -> default (30s)
	CommandTimeoutSeconds int `yaml:"command_timeout_seconds" envconfig:"DISPATCH_COMMAND_TIMEOUT_SECONDS"`
}

const (
	// UpdateMessage identifies message updates for allowed_updates and rate limit exclusions.
	UpdateMessage = "message"
	// UpdateCallback identifies callback query updates.
	UpdateCallback = "callback_query"
)

// RateLimitConfig holds settings for per-user rate limiting.
// ExcludeUpdates accepts update kinds to bypass limiting ("message", "callback_query").
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	State     StateConfig     `yaml:"state"`
	Logging   LoggingConfig   `yaml:"logging"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Telegram.PollIntervalSeconds < 0 {
		return fmt.Errorf("telegram.poll_interval_seconds must be >= 0")
	}
	if cfg.Telegram.LongPollTimeoutSeconds < 0 {
		return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
	}
	if cfg.Dispatch.CommandTimeoutSeconds < 0 {
		return fmt.Errorf("dispatch.command_timeout_seconds must be >= 0")
	}

	if cfg.Telegram.PollIntervalSeconds == 0 {
		cfg.Telegram.PollIntervalSeconds = 10
	}
	if cfg.Dispatch.CommandTimeoutSeconds == 0 {
		cfg.Dispatch.CommandTimeoutSeconds = 30
	}

	if strings.TrimSpace(cfg.State.Path) == "" {
		cfg.State.Path = "data.json"
	}

	allowed := map[string]struct{}{
		UpdateMessage:  {},
		UpdateCallback: {},
	}
	for i, v := range cfg.Telegram.AllowedUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid telegram.allowed_updates value %q; allowed: message, callback_query", v)
		}
		cfg.Telegram.AllowedUpdates[i] = key
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: message, callback_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}
