// Package config provides environment-driven configuration for the engine's commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Notification delivery modes
const (
	NotifyModeNATS   = "nats"
	NotifyModeDirect = "direct"
	NotifyModeLog    = "log"
)

// ServerConfig holds settings shared by the serve and worker commands.
// All values come from the environment; missing values use defaults.
type ServerConfig struct {
	DatabaseURL string
	Port        int

	LogLevel  string
	LogFormat string

	NotifyMode      string
	NATSURL         string
	NATSConnTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTelCollectorURL string
	AppBaseURL       string

	// ExpirySweepInterval enables a background sweep of stale invitations
	// when positive. Reads expire lazily either way.
	ExpirySweepInterval time.Duration

	SMTP SMTPConfig
}

// SMTPConfig holds outbound mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Timeout bounds dialing and the whole SMTP conversation
	Timeout time.Duration
}

// Addr returns host:port for dialing.
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadServerConfig reads the server configuration from environment variables.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		DatabaseURL: getEnvString("DATABASE_URL", ""),
		Port:        getEnvInt("PORT", 8080),

		LogLevel:  getEnvString("LOG_LEVEL", "info"),
		LogFormat: getEnvString("LOG_FORMAT", "json"),

		NotifyMode:      strings.ToLower(getEnvString("NOTIFY_MODE", NotifyModeLog)),
		NATSURL:         getEnvString("NATS_URL", "nats://localhost:4222"),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		RedisAddr:     getEnvString("REDIS_ADDR", ""),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTelCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),
		AppBaseURL:       strings.TrimRight(getEnvString("APP_BASE_URL", "http://localhost:3000"), "/"),

		ExpirySweepInterval: getEnvDuration("EXPIRY_SWEEP_INTERVAL", 0),

		SMTP: SMTPConfig{
			Host:     getEnvString("SMTP_HOST", "localhost"),
			Port:     getEnvInt("SMTP_PORT", 25),
			Username: getEnvString("SMTP_USERNAME", ""),
			Password: getEnvString("SMTP_PASSWORD", ""),
			From:     getEnvString("SMTP_FROM", "talent@localhost"),
			Timeout:  getEnvDuration("SMTP_TIMEOUT", 10*time.Second),
		},
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the configuration.
func (c *ServerConfig) normalize() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	switch c.NotifyMode {
	case NotifyModeNATS, NotifyModeDirect, NotifyModeLog:
	default:
		return fmt.Errorf("invalid NOTIFY_MODE: %q (must be nats, direct or log)", c.NotifyMode)
	}
	if c.NotifyMode == NotifyModeNATS && c.NATSURL == "" {
		return fmt.Errorf("NATS_URL is required when NOTIFY_MODE is nats")
	}
	if c.ExpirySweepInterval < 0 {
		return fmt.Errorf("EXPIRY_SWEEP_INTERVAL cannot be negative")
	}
	return nil
}

// RequireDatabase returns an error when DATABASE_URL is not set.
func (c *ServerConfig) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required but not set")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
