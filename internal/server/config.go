// Package server provides configuration helpers that define runtime defaults,
// validation, and session parameters for the direct chat service.
package server

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	defaultPort            = ":8080"
	defaultOrigin          = "http://localhost:8080"
	defaultMaxMessageSize  = 16384
	defaultSessionSecret   = "directchat-dev-secret"
	defaultSessionTTL      = 24 * time.Hour
	defaultLogLevel        = "INFO"
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds the server configuration settings including security controls.
type Config struct {
	Port string `env:"SERVER_PORT,default=:8080"`
	// Origins is the raw comma separated ALLOWED_ORIGINS value; "*" allows
	// every origin.
	Origins string `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	// MaxMessageSize caps an inbound websocket frame, in bytes.
	MaxMessageSize  int           `env:"MAX_MESSAGE_SIZE,default=16384"`
	SessionSecret   string        `env:"SESSION_SECRET,default=directchat-dev-secret"`
	SessionTTL      time.Duration `env:"SESSION_TTL,default=24h"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	AllowedOrigins []string
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := Config{
		Port:            defaultPort,
		Origins:         defaultOrigin,
		AllowedOrigins:  []string{defaultOrigin},
		MaxMessageSize:  defaultMaxMessageSize,
		SessionSecret:   defaultSessionSecret,
		SessionTTL:      defaultSessionTTL,
		LogLevel:        defaultLogLevel,
		ShutdownTimeout: defaultShutdownTimeout,
	}
	return &cfg
}

// LoadConfig reads the configuration from the environment. A .env file in
// the working directory is loaded first when present; variables already set
// in the environment win.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	cfg.AllowedOrigins = parseOrigins(cfg.Origins)

	sanitized := sanitizeConfig(cfg)
	return &sanitized, nil
}

// UsesDefaultSecret reports whether sessions are signed with the built-in
// development secret.
func (c Config) UsesDefaultSecret() bool {
	return c.SessionSecret == defaultSessionSecret
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = defaultSessionSecret
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
