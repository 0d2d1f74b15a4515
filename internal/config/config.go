// Package config provides configuration management for the broker
// integration layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Brokers     BrokersConfig `mapstructure:"brokers"`
	Limits      LimitsConfig  `mapstructure:"limits"`
	Logging     LoggingConfig `mapstructure:"logging"`
	Store       StoreConfig   `mapstructure:"store"`
	UI          UIConfig      `mapstructure:"ui"`
	Credentials Credentials   `mapstructure:"-"` // Loaded separately
}

// BrokersConfig selects which broker adapters are enabled and lets base
// URLs be overridden for test environments.
type BrokersConfig struct {
	Default        string `mapstructure:"default"`
	ShoonyaBaseURL string `mapstructure:"shoonya_base_url"`
	FyersBaseURL   string `mapstructure:"fyers_base_url"`
}

// LimitsConfig holds retry and rate-limit tuning.
type LimitsConfig struct {
	MaxRetryAttempts  int           `mapstructure:"max_retry_attempts"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay"`
	RateLimitCalls    int           `mapstructure:"rate_limit_calls"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	SessionProbeOnUse bool          `mapstructure:"session_probe_on_use"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// UIConfig holds CLI output configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// Credentials holds per-broker API credentials.
type Credentials struct {
	Shoonya ShoonyaCredentials `mapstructure:"shoonya"`
	Fyers   FyersCredentials   `mapstructure:"fyers"`
}

// ShoonyaCredentials holds Shoonya direct-auth credentials.
type ShoonyaCredentials struct {
	UserID     string `mapstructure:"user_id"`
	Password   string `mapstructure:"password"`
	VendorCode string `mapstructure:"vendor_code"`
	APISecret  string `mapstructure:"api_secret"`
	IMEI       string `mapstructure:"imei"`
	TOTPSecret string `mapstructure:"totp_secret"`
}

// FyersCredentials holds Fyers OAuth app credentials.
type FyersCredentials struct {
	ClientID    string `mapstructure:"client_id"`
	SecretKey   string `mapstructure:"secret_key"`
	RedirectURI string `mapstructure:"redirect_uri"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/copytrade"
	}
	return filepath.Join(home, ".config", "copytrade")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("brokers.default", "shoonya")
	v.SetDefault("limits.max_retry_attempts", 3)
	v.SetDefault("limits.retry_base_delay", "500ms")
	v.SetDefault("limits.rate_limit_calls", 10)
	v.SetDefault("limits.rate_limit_window", "1s")
	v.SetDefault("limits.request_timeout", "10s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("store.db_path", filepath.Join(configDir, "accounts.db"))
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
	v.SetDefault("ui.time_format", "15:04:05")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	// Shoonya credentials
	if v := os.Getenv("SHOONYA_USER_ID"); v != "" {
		cfg.Credentials.Shoonya.UserID = v
	}
	if v := os.Getenv("SHOONYA_PASSWORD"); v != "" {
		cfg.Credentials.Shoonya.Password = v
	}
	if v := os.Getenv("SHOONYA_VENDOR_CODE"); v != "" {
		cfg.Credentials.Shoonya.VendorCode = v
	}
	if v := os.Getenv("SHOONYA_API_SECRET"); v != "" {
		cfg.Credentials.Shoonya.APISecret = v
	}
	if v := os.Getenv("SHOONYA_TOTP_SECRET"); v != "" {
		cfg.Credentials.Shoonya.TOTPSecret = v
	}

	// Fyers credentials
	if v := os.Getenv("FYERS_CLIENT_ID"); v != "" {
		cfg.Credentials.Fyers.ClientID = v
	}
	if v := os.Getenv("FYERS_SECRET_KEY"); v != "" {
		cfg.Credentials.Fyers.SecretKey = v
	}
	if v := os.Getenv("FYERS_REDIRECT_URI"); v != "" {
		cfg.Credentials.Fyers.RedirectURI = v
	}

	if v := os.Getenv("COPYTRADE_DEFAULT_BROKER"); v != "" {
		cfg.Brokers.Default = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Limits.MaxRetryAttempts < 1 {
		return fmt.Errorf("max_retry_attempts must be at least 1")
	}
	if c.Limits.RetryBaseDelay < 0 {
		return fmt.Errorf("retry_base_delay must be non-negative")
	}
	if c.Limits.RateLimitCalls < 1 {
		return fmt.Errorf("rate_limit_calls must be at least 1")
	}
	if c.Limits.RateLimitWindow <= 0 {
		return fmt.Errorf("rate_limit_window must be positive")
	}
	return nil
}
