// Package config loads loader configuration from an optional YAML file and
// the process environment. The one required secret, the Orb API key, comes
// from the ORB_API_KEY environment variable.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the loader needs for a run.
type Config struct {
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	EventName        string        `mapstructure:"event_name"`
	ThrottleInterval time.Duration `mapstructure:"throttle_interval"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	LogLevel         string        `mapstructure:"log_level"`
}

// Load reads configuration from the given file (optional) and the
// environment. Environment values override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("base_url", "https://api.withorb.com/v1")
	v.SetDefault("event_name", "payment_transaction")
	v.SetDefault("throttle_interval", "1500ms")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("log_level", "debug")

	v.BindEnv("api_key", "ORB_API_KEY")
	v.BindEnv("base_url", "ORB_BASE_URL")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("orb-loader")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		// Missing default config file is fine; env and defaults apply.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("config: read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in defaults without touching files or env.
func Default() *Config {
	return &Config{
		BaseURL:          "https://api.withorb.com/v1",
		EventName:        "payment_transaction",
		ThrottleInterval: 1500 * time.Millisecond,
		RequestTimeout:   30 * time.Second,
		LogLevel:         "debug",
	}
}

// Validate checks that the config can authenticate API calls.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("config: ORB_API_KEY is not set")
	}
	if c.ThrottleInterval < 0 {
		return fmt.Errorf("config: throttle_interval must not be negative")
	}
	return nil
}
