package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tempus-app/tempus/internal/validation"
)

// Config holds client configuration
type Config struct {
	APIBaseURL      string        `yaml:"api_base_url" validate:"omitempty,url"`
	HTTPTimeout     time.Duration `yaml:"http_timeout" validate:"gt=0"`
	TokenStore      string        `yaml:"token_store" validate:"oneof=memory sqlite redis"`
	SQLitePath      string        `yaml:"sqlite_path" validate:"required_if=TokenStore sqlite"`
	RedisURL        string        `yaml:"redis_url" validate:"required_if=TokenStore redis"`
	OIDCIssuer      string        `yaml:"oidc_issuer"`
	OIDCClientID    string        `yaml:"oidc_client_id"`
	OIDCTokenURL    string        `yaml:"oidc_token_url" validate:"omitempty,url"`
	RefreshSchedule string        `yaml:"refresh_schedule" validate:"required"`
	LogFormat       string        `yaml:"log_format" validate:"oneof=json console"`
	DebugMode       bool          `yaml:"debug_mode"`
	OTELEnabled     bool          `yaml:"otel_enabled"`
	OTELEndpoint    string        `yaml:"otel_endpoint"`
	MockAPIPort     string        `yaml:"mock_api_port"`
}

// Load reads configuration and requires an API base URL
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("TEMPUS_API_BASE_URL is required")
	}
	return cfg, nil
}

// Read loads .env, then environment variables, then the YAML file named by
// TEMPUS_CONFIG, which overrides any key it sets. The base URL may be empty.
func Read() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		APIBaseURL:      getEnv("TEMPUS_API_BASE_URL", ""),
		HTTPTimeout:     getEnvDuration("TEMPUS_HTTP_TIMEOUT", 10*time.Second),
		TokenStore:      getEnv("TEMPUS_TOKEN_STORE", "sqlite"),
		SQLitePath:      getEnv("TEMPUS_SQLITE_PATH", "tempus.db"),
		RedisURL:        getEnv("REDIS_URL", ""),
		OIDCIssuer:      getEnv("OIDC_ISSUER", ""),
		OIDCClientID:    getEnv("OIDC_CLIENT_ID", ""),
		OIDCTokenURL:    getEnv("OIDC_TOKEN_URL", ""),
		RefreshSchedule: getEnv("TEMPUS_REFRESH_SCHEDULE", "@every 5m"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
		DebugMode:       getEnvBool("DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MockAPIPort:     getEnv("MOCK_API_PORT", "8089"),
	}

	if path := os.Getenv("TEMPUS_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// mergeFile overlays the keys present in a YAML file
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// OIDCEnabled reports whether refresh tokens can be exchanged
func (c *Config) OIDCEnabled() bool {
	return c.OIDCClientID != "" && c.OIDCTokenURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
