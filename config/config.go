// Package config provides configuration management for the console.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the console configuration.
type Config struct {
	Server ServerConfig
	HTTP   HTTPConfig
}

// ServerConfig locates the Llamero control plane.
type ServerConfig struct {
	// URL is the control plane root, e.g. "https://llamero.internal".
	URL string
}

// HTTPConfig tunes the console's HTTP clients.
type HTTPConfig struct {
	// RequestTimeout bounds buffered calls. Streaming calls have none.
	RequestTimeout time.Duration
	// ResponseHeaderTimeout bounds the wait for headers on any call.
	ResponseHeaderTimeout time.Duration
	// MaxRetries applies to idempotent reads only.
	MaxRetries int
}

// Load reads configuration from a local .env file and the environment.
func Load() (*Config, error) {
	// Load .env using Viper (optional, won't fail if not found)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig()

	viper.SetDefault("LLAMERO_URL", "http://localhost:8080")
	viper.SetDefault("LLAMERO_HTTP_TIMEOUT", "60s")
	viper.SetDefault("LLAMERO_HTTP_HEADER_TIMEOUT", "60s")
	viper.SetDefault("LLAMERO_HTTP_MAX_RETRIES", 2)

	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			URL: strings.TrimRight(viper.GetString("LLAMERO_URL"), "/"),
		},
		HTTP: HTTPConfig{
			RequestTimeout:        viper.GetDuration("LLAMERO_HTTP_TIMEOUT"),
			ResponseHeaderTimeout: viper.GetDuration("LLAMERO_HTTP_HEADER_TIMEOUT"),
			MaxRetries:            viper.GetInt("LLAMERO_HTTP_MAX_RETRIES"),
		},
	}

	if _, err := url.ParseRequestURI(cfg.Server.URL); err != nil {
		return nil, fmt.Errorf("invalid LLAMERO_URL %q: %w", cfg.Server.URL, err)
	}

	return cfg, nil
}
