package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration shared by the server
// and the kiosk. One file configures both; each binary reads the
// sections it cares about.
type Config struct {
	Server struct {
		Port          int    `yaml:"port"`
		Verbose       bool   `yaml:"verbose"`
		SessionSecret string `yaml:"session_secret"`
		SecureCookies bool   `yaml:"secure_cookies"`
	} `yaml:"server"`

	Raffle struct {
		MinQuantity int `yaml:"min_quantity"`
		MaxQuantity int `yaml:"max_quantity"`
		// Fallback unit prices used until an admin sets real ones.
		// Resolved once at startup, never mutated afterwards.
		FallbackPriceBs  float64 `yaml:"fallback_price_bs"`
		FallbackPriceUsd float64 `yaml:"fallback_price_usd"`
	} `yaml:"raffle"`

	Kiosk struct {
		ServerURL  string `yaml:"server_url"`
		Standalone bool   `yaml:"standalone"`
	} `yaml:"kiosk"`

	Notify struct {
		WebhookURL string `yaml:"webhook_url"`
		Timeout    string `yaml:"timeout"`
		MaxRetries int    `yaml:"max_retries"`
	} `yaml:"notify"`

	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
}

// ParsedConfig contains parsed time.Duration values for easier use
type ParsedConfig struct {
	Config
	NotifyTimeout time.Duration
}

// LoadConfig loads configuration from a YAML file and applies defaults
// for everything the file leaves out.
func LoadConfig(filepath string) (*ParsedConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	applyDefaults(&cfg)

	notifyTimeout, err := time.ParseDuration(cfg.Notify.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid notify timeout: %v", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	return &ParsedConfig{
		Config:        cfg,
		NotifyTimeout: notifyTimeout,
	}, nil
}

// applyDefaults fills the explicit defaults for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Raffle.MinQuantity == 0 {
		cfg.Raffle.MinQuantity = 2
	}
	if cfg.Raffle.MaxQuantity == 0 {
		cfg.Raffle.MaxQuantity = 500
	}
	if cfg.Raffle.FallbackPriceBs == 0 {
		cfg.Raffle.FallbackPriceBs = 100
	}
	if cfg.Raffle.FallbackPriceUsd == 0 {
		cfg.Raffle.FallbackPriceUsd = 10
	}
	if cfg.Kiosk.ServerURL == "" {
		cfg.Kiosk.ServerURL = "http://localhost:8080"
	}
	if cfg.Notify.Timeout == "" {
		cfg.Notify.Timeout = "10s"
	}
}

// validateConfig validates the configuration values
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if cfg.Raffle.MinQuantity < 1 {
		return fmt.Errorf("min_quantity must be at least 1")
	}

	if cfg.Raffle.MaxQuantity < cfg.Raffle.MinQuantity {
		return fmt.Errorf("max_quantity must be >= min_quantity")
	}

	if cfg.Raffle.FallbackPriceBs < 0 || cfg.Raffle.FallbackPriceUsd < 0 {
		return fmt.Errorf("fallback prices must be non-negative")
	}

	if cfg.Notify.MaxRetries < 0 {
		return fmt.Errorf("notify max_retries must be non-negative")
	}

	return nil
}
