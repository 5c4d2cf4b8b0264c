package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Gemini    GeminiConfig
	Upload    UploadConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Search    SearchConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds catalog database configuration
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// UploadConfig holds image upload limits
type UploadConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	MaxDimension int   `mapstructure:"max_dimension"`
}

// CacheConfig holds identification cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// SearchConfig holds matching configuration
type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/lenscart/")

	// Environment variable settings
	v.SetEnvPrefix("LENSCART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database defaults
	// Empty defaults register env-only keys so AutomaticEnv can fill them.
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.model", "gemini-1.5-flash")

	// Upload defaults
	v.SetDefault("upload.max_size_bytes", 10*1024*1024)
	v.SetDefault("upload.max_dimension", 2048)

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Search defaults
	v.SetDefault("search.default_limit", 20)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key is required (set LENSCART_GEMINI_API_KEY)")
	}

	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set LENSCART_DATABASE_DSN)")
	}

	if config.Upload.MaxSizeBytes <= 0 {
		return fmt.Errorf("upload max size must be positive, got: %d", config.Upload.MaxSizeBytes)
	}

	if config.Search.DefaultLimit < 1 || config.Search.DefaultLimit > 100 {
		return fmt.Errorf("search default limit must be in [1,100], got: %d", config.Search.DefaultLimit)
	}

	return nil
}
