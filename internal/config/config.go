// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Shivanand-hulikatti/event-reservations/internal/database"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config is the fully resolved service configuration.
type Config struct {
	Port    string
	Storage string
	DB      database.Config

	JWTSecret        string
	TokenTTL         time.Duration
	TokenRenewWindow time.Duration

	TicketDir        string
	TicketSigningKey string

	CORSOrigins []string

	AdminName     string
	AdminEmail    string
	AdminPassword string

	ResendAPIKey string
	MailFrom     string

	LogLevel  slog.Level
	LogFormat string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:    get("PORT", "8080"),
		Storage: strings.ToLower(get("STORAGE", StoragePostgres)),
		DB: database.Config{
			URL:      get("DATABASE_URL", ""),
			Host:     get("DB_HOST", "localhost"),
			Port:     get("DB_PORT", "5432"),
			User:     get("DB_USER", "postgres"),
			Password: get("DB_PASSWORD", "postgres"),
			DBName:   get("DB_NAME", "eventreservations"),
			SSLMode:  get("DB_SSLMODE", "disable"),
		},
		JWTSecret:        get("JWT_SECRET", ""),
		TicketDir:        get("TICKET_DIR", "uploads/tickets"),
		TicketSigningKey: get("TICKET_SIGNING_KEY", ""),
		AdminName:        get("ADMIN_NAME", "Admin"),
		AdminEmail:       get("ADMIN_EMAIL", "admin@event.com"),
		AdminPassword:    get("ADMIN_PASSWORD", ""),
		ResendAPIKey:     get("RESEND_API_KEY", ""),
		MailFrom:         get("MAIL_FROM", "Events <no-reply@event.com>"),
		LogFormat:        strings.ToLower(get("LOG_FORMAT", "json")),
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(get("TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	if cfg.TokenRenewWindow, err = time.ParseDuration(get("TOKEN_RENEW_WINDOW", "6h")); err != nil {
		return nil, fmt.Errorf("TOKEN_RENEW_WINDOW: %w", err)
	}
	if n := get("DB_MAX_CONNS", ""); n != "" {
		v, err := strconv.Atoi(n)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("DB_MAX_CONNS must be a positive integer")
		}
		cfg.DB.MaxConns = int32(v)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	for _, origin := range strings.Split(get("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	if c.JWTSecret == "" {
		if c.Storage == StoragePostgres {
			return errors.New("JWT_SECRET is required")
		}
		c.JWTSecret = "dev-secret"
	}
	if c.TicketSigningKey == "" {
		c.TicketSigningKey = c.JWTSecret
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.TokenRenewWindow < 0 || c.TokenRenewWindow > c.TokenTTL {
		return errors.New("TOKEN_RENEW_WINDOW must be between 0 and TOKEN_TTL")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// Logger builds the process logger described by the config.
func (c *Config) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
