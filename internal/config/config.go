// Package config loads application configuration with viper.
//
// Priority (highest to lowest):
//  1. Environment variables with CASHFLOW_ prefix (e.g. CASHFLOW_FEED_API_KEY)
//  2. config.yaml in the working directory
//  3. Built-in defaults
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App  AppConfig
	Feed FeedConfig
	Log  LogConfig
}

// AppConfig holds service-level settings.
type AppConfig struct {
	Port     string
	DBPath   string
	Timezone string
	Currency string
}

// FeedConfig holds order-feed connection settings.
type FeedConfig struct {
	BaseURL        string
	APIKey         string
	Password       string
	PerPage        int
	MaxPages       int
	RequestTimeout time.Duration
	MaxRetries     int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// Load reads configuration from file, environment, and defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file is fine; defaults and env vars cover everything.
	}

	v.SetEnvPrefix("CASHFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Port:     v.GetString("app.port"),
			DBPath:   v.GetString("app.db_path"),
			Timezone: v.GetString("app.timezone"),
			Currency: v.GetString("app.currency"),
		},
		Feed: FeedConfig{
			BaseURL:        v.GetString("feed.base_url"),
			APIKey:         v.GetString("feed.api_key"),
			Password:       v.GetString("feed.password"),
			PerPage:        v.GetInt("feed.per_page"),
			MaxPages:       v.GetInt("feed.max_pages"),
			RequestTimeout: v.GetDuration("feed.request_timeout"),
			MaxRetries:     v.GetInt("feed.max_retries"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if cfg.Feed.BaseURL == "" {
		return nil, fmt.Errorf("feed.base_url is required")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.db_path", "cashflow.db")
	v.SetDefault("app.timezone", "Europe/Tallinn")
	v.SetDefault("app.currency", "EUR")

	v.SetDefault("feed.per_page", 50)
	v.SetDefault("feed.max_pages", 30)
	v.SetDefault("feed.request_timeout", 15*time.Second)
	v.SetDefault("feed.max_retries", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
