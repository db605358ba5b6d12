// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	APIBaseURL     string `mapstructure:"API_BASE_URL"`
	DataDir        string `mapstructure:"DATA_DIR"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	HTTPTimeoutSec int    `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	Env            string `mapstructure:"APP_ENV"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config.
	// The config file is optional; env vars and defaults cover everything.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "4380")
	viper.SetDefault("API_BASE_URL", "http://localhost:8375/api")
	viper.SetDefault("DATA_DIR", ".inkwell")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	viper.SetDefault("APP_ENV", "development")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and sane.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return errors.New("API_BASE_URL must be an http(s) URL")
	}
	if c.DataDir == "" {
		return errors.New("DATA_DIR is required")
	}
	if c.HTTPTimeoutSec <= 0 {
		return errors.New("HTTP_TIMEOUT_SECONDS must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if strings.HasPrefix(c.APIBaseURL, "http://") && !strings.Contains(c.APIBaseURL, "localhost") {
			return errors.New("API_BASE_URL must use https in production (credentials travel on this connection)")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	}

	return nil
}
