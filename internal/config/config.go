// Package config loads settings from defaults, an optional .env file, an
// optional config file and PANTRY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full application configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Search   SearchConfig   `mapstructure:"search"`
	Display  DisplayConfig  `mapstructure:"display"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Filter   FilterConfig   `mapstructure:"filter"`
	DB       DBConfig       `mapstructure:"db"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
}

// APIConfig holds recipe API connection settings
type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Key           string        `mapstructure:"key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// SearchConfig holds result sizes requested from the API
type SearchConfig struct {
	Number        int `mapstructure:"number"`
	RandomNumber  int `mapstructure:"random_number"`
	SimilarNumber int `mapstructure:"similar_number"`
}

// DisplayConfig holds presentation limits
type DisplayConfig struct {
	SimilarLimit int `mapstructure:"similar_limit"`
	HistoryLimit int `mapstructure:"history_limit"`
}

// ResolverConfig holds ingredient matching settings
type ResolverConfig struct {
	Threshold int `mapstructure:"threshold"`
}

// FilterConfig toggles the optional admission rules
type FilterConfig struct {
	GlutenKeywordRule bool `mapstructure:"gluten_keyword_rule"`
}

// DBConfig locates the SQLite database
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// AuditConfig locates the optional account export file; empty disables it
type AuditConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// ServerConfig controls the JSON API server
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration. configFile may be empty.
func Load(configFile string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PANTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("api.key", "PANTRY_API_KEY", "SPOONACULAR_API_KEY")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("api.base_url", "https://api.spoonacular.com")
	v.SetDefault("api.key", "")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("api.rate_per_second", 1.0)
	v.SetDefault("api.burst", 5)

	v.SetDefault("search.number", 30)
	v.SetDefault("search.random_number", 15)
	v.SetDefault("search.similar_number", 5)

	v.SetDefault("display.similar_limit", 3)
	v.SetDefault("display.history_limit", 20)

	v.SetDefault("resolver.threshold", 80)
	v.SetDefault("filter.gluten_keyword_rule", false)

	v.SetDefault("db.path", filepath.Join(home, ".pantry", "pantry.db"))
	v.SetDefault("audit.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "pantry.log")

	v.SetDefault("server.addr", ":8080")
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Resolver.Threshold < 0 || c.Resolver.Threshold > 100 {
		return fmt.Errorf("resolver threshold must be within 0..100, got %d", c.Resolver.Threshold)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	if c.Search.Number <= 0 || c.Search.RandomNumber <= 0 || c.Search.SimilarNumber <= 0 {
		return fmt.Errorf("search result sizes must be positive")
	}
	if c.Display.SimilarLimit <= 0 || c.Display.HistoryLimit <= 0 {
		return fmt.Errorf("display limits must be positive")
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db path is required")
	}
	return nil
}

// MaskedKey shows only the first and last four characters of the API key
func (c *Config) MaskedKey() string {
	key := c.API.Key
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
