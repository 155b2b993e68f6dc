// Package config loads the ledger service configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds the service configuration.
type Config struct {
	// ListenAddr is the TCP address the ledger protocol binds to.
	ListenAddr string `yaml:"listen_addr"`
	// AdminAddr is the HTTP address for the read-only operator API and
	// metrics. Empty disables it.
	AdminAddr string `yaml:"admin_addr"`
	// StartingBalance is credited to every newly registered account.
	StartingBalance string `yaml:"starting_balance"`

	RateLimit struct {
		RequestsPerSecond int `yaml:"requests_per_second"`
		Burst             int `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		ListenAddr:      "localhost:42000",
		AdminAddr:       "localhost:42080",
		StartingBalance: "1000",
	}
	cfg.RateLimit.RequestsPerSecond = 50
	cfg.RateLimit.Burst = 100
	return cfg
}

// Load loads the configuration from config/ledger.yaml.
func Load() (*Config, error) {
	return LoadFromPath(filepath.Join("config", "ledger.yaml"))
}

// LoadFromPath loads the configuration from a specific file and applies
// environment overrides.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the config file or falls back to defaults (still
// honoring environment overrides) when it is absent.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = Default()
		cfg.applyEnv()
	}
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LEDGER_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("LEDGER_ADMIN_ADDR"); v != "" {
		c.AdminAddr = v
	}
	if v := os.Getenv("LEDGER_STARTING_BALANCE"); v != "" {
		c.StartingBalance = v
	}
	if v := os.Getenv("LEDGER_RATE_LIMIT_RPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.RequestsPerSecond = n
		}
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	balance, err := decimal.NewFromString(c.StartingBalance)
	if err != nil {
		return fmt.Errorf("starting_balance %q is not a valid decimal", c.StartingBalance)
	}
	if balance.IsNegative() {
		return fmt.Errorf("starting_balance must not be negative")
	}
	return nil
}

// StartingBalanceDecimal returns the parsed starting balance. Call Validate
// first.
func (c *Config) StartingBalanceDecimal() decimal.Decimal {
	balance, err := decimal.NewFromString(c.StartingBalance)
	if err != nil {
		return decimal.NewFromInt(1000)
	}
	return balance
}
