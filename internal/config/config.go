// Package config provides configuration management for the analysis application.
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
	Model      ModelConfig      `mapstructure:"model"`
	MarketData MarketDataConfig `mapstructure:"marketdata"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Reports    ReportsConfig    `mapstructure:"reports"`
	Server     ServerConfig     `mapstructure:"server"`
}

// ModelConfig holds language model configuration. The client speaks the
// OpenAI chat API; Ollama is reached through its OpenAI-compatible endpoint.
type ModelConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Name    string        `mapstructure:"name"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MarketDataConfig holds market data gateway configuration.
type MarketDataConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	WindowDays int           `mapstructure:"window_days"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// CatalogConfig holds company catalog configuration.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
	// PromptLimit caps how many catalog entries the resolver's fallback
	// prompt carries. A fixed prefix, not a relevance-ranked subset; kept
	// for parity with the catalog's symbol-sorted layout but a known
	// precision limitation for companies beyond the cutoff.
	PromptLimit int `mapstructure:"prompt_limit"`
}

// ReportsConfig holds report persistence configuration.
type ReportsConfig struct {
	Dir           string `mapstructure:"dir"`
	DBPath        string `mapstructure:"db_path"`
	SaveArtifacts bool   `mapstructure:"save_artifacts"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/twstock-analyst"
	}
	return filepath.Join(home, ".config", "twstock-analyst")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// First run: write a template so the defaults are discoverable.
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("model.base_url", "http://localhost:11434/v1")
	v.SetDefault("model.api_key", "ollama")
	v.SetDefault("model.name", "gpt-oss:20b")
	v.SetDefault("model.timeout", 2*time.Minute)

	v.SetDefault("marketdata.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("marketdata.window_days", 30)
	v.SetDefault("marketdata.timeout", 30*time.Second)
	v.SetDefault("marketdata.max_retries", 3)

	v.SetDefault("catalog.path", filepath.Join(configDir, "companies.json"))
	v.SetDefault("catalog.prompt_limit", 500)

	v.SetDefault("reports.dir", filepath.Join(configDir, "reports"))
	v.SetDefault("reports.db_path", filepath.Join(configDir, "analyst.db"))
	v.SetDefault("reports.save_artifacts", true)

	v.SetDefault("server.port", 8000)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Model.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("COMPANY_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Model.BaseURL == "" {
		return fmt.Errorf("model.base_url must not be empty")
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model.name must not be empty")
	}
	if c.MarketData.WindowDays < 2 {
		return fmt.Errorf("marketdata.window_days must be at least 2")
	}
	if c.Catalog.PromptLimit <= 0 {
		return fmt.Errorf("catalog.prompt_limit must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid port number")
	}
	return nil
}
