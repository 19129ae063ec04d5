// Package config loads the bridge server configuration from an
// optional JSON file with environment variable overrides.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string    `json:"serverAddress"`
	Library       Library   `json:"library"`
	Thumbnail     Thumbnail `json:"thumbnail"`
	LogLevel      string    `json:"logLevel"`
}

// Library configuration for the media directory and its metadata cache
type Library struct {
	Path             string `json:"path"`
	CacheDatabase    string `json:"cacheDatabase"`
	StalenessMinutes int    `json:"stalenessMinutes"`
}

// Thumbnail configuration for the resolution pipeline
type Thumbnail struct {
	Width          int `json:"width"`
	Height         int `json:"height"`
	JPEGQuality    int `json:"jpegQuality"`
	TimeoutSeconds int `json:"timeoutSeconds"`
}

// Staleness returns the snapshot staleness threshold.
func (c *Config) Staleness() time.Duration {
	return time.Duration(c.Library.StalenessMinutes) * time.Minute
}

// ResolveTimeout returns the high-quality fetch timeout.
func (c *Config) ResolveTimeout() time.Duration {
	return time.Duration(c.Thumbnail.TimeoutSeconds) * time.Second
}

// Default configuration. The address is loopback-only on the fixed
// port the plugin dials.
func defaultConfig() *Config {
	return &Config{
		ServerAddress: "127.0.0.1:44556",
		Library: Library{
			Path:             "./media",
			CacheDatabase:    "bridge-cache.db",
			StalenessMinutes: 5,
		},
		Thumbnail: Thumbnail{
			Width:          200,
			Height:         200,
			JPEGQuality:    80,
			TimeoutSeconds: 8,
		},
		LogLevel: "info",
	}
}

// Load loads configuration from file or environment
func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override from environment variables
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if path := os.Getenv("MEDIA_LIBRARY_PATH"); path != "" {
		cfg.Library.Path = path
	}
	if cache := os.Getenv("CACHE_DATABASE_PATH"); cache != "" {
		cfg.Library.CacheDatabase = cache
	}
	if staleness := os.Getenv("LIBRARY_STALENESS_MINUTES"); staleness != "" {
		if minutes, err := strconv.Atoi(staleness); err == nil && minutes > 0 {
			cfg.Library.StalenessMinutes = minutes
		}
	}
	if timeout := os.Getenv("THUMBNAIL_TIMEOUT_SECONDS"); timeout != "" {
		if seconds, err := strconv.Atoi(timeout); err == nil && seconds > 0 {
			cfg.Thumbnail.TimeoutSeconds = seconds
		}
	}
	if quality := os.Getenv("THUMBNAIL_JPEG_QUALITY"); quality != "" {
		if q, err := strconv.Atoi(quality); err == nil && q > 0 && q <= 100 {
			cfg.Thumbnail.JPEGQuality = q
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	// Ensure the media directory exists
	if err := os.MkdirAll(cfg.Library.Path, 0755); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(cfg.Library.Path)
	if err != nil {
		return nil, err
	}
	cfg.Library.Path = absPath

	return cfg, nil
}
