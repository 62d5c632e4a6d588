// Package config reads server settings from the environment, after loading
// an optional .env file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvProduction is the OUTREACH_ENV value that enables production checks.
const EnvProduction = "production"

// Config is the server configuration.
type Config struct {
	Addr          string
	DBPath        string
	Env           string
	CSRFKey       []byte // 32 bytes
	AdminEmail    string
	AdminPassword string
	LogLevel      slog.Level
	SlowQuery     time.Duration
	RateLimit     int // requests per second per IP
	Location      *time.Location
}

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

var (
	ErrMissingCSRFKey = errors.New("OUTREACH_CSRF_KEY is required in production")
	ErrBadCSRFKey     = errors.New("OUTREACH_CSRF_KEY must be 64 hex characters")
	ErrBadRateLimit   = errors.New("OUTREACH_RATE_LIMIT must be a positive integer")
	ErrBadSlowQuery   = errors.New("OUTREACH_SLOW_QUERY_MS must be a positive integer")
	ErrBadLogLevel    = errors.New("OUTREACH_LOG_LEVEL must be one of debug, info, warn, error")
	ErrBadTimezone    = errors.New("OUTREACH_TIMEZONE is not a known IANA zone")
)

// Load reads .env (if present) and the OUTREACH_* variables.
// POST: Returns a validated Config, or the first invalid setting
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Addr:          get("OUTREACH_ADDR", ":8080"),
		DBPath:        get("OUTREACH_DB_PATH", "outreach.db"),
		Env:           get("OUTREACH_ENV", "development"),
		AdminEmail:    get("OUTREACH_ADMIN_EMAIL", ""),
		AdminPassword: get("OUTREACH_ADMIN_PASSWORD", ""),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(get("OUTREACH_LOG_LEVEL", "info"))); err != nil {
		return Config{}, ErrBadLogLevel
	}

	ms, err := strconv.Atoi(get("OUTREACH_SLOW_QUERY_MS", "100"))
	if err != nil || ms <= 0 {
		return Config{}, ErrBadSlowQuery
	}
	cfg.SlowQuery = time.Duration(ms) * time.Millisecond

	cfg.RateLimit, err = strconv.Atoi(get("OUTREACH_RATE_LIMIT", "10"))
	if err != nil || cfg.RateLimit <= 0 {
		return Config{}, ErrBadRateLimit
	}

	cfg.Location, err = time.LoadLocation(get("OUTREACH_TIMEZONE", "UTC"))
	if err != nil {
		return Config{}, ErrBadTimezone
	}

	if key := get("OUTREACH_CSRF_KEY", ""); key != "" {
		cfg.CSRFKey, err = hex.DecodeString(key)
		if err != nil || len(cfg.CSRFKey) != 32 {
			return Config{}, ErrBadCSRFKey
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.CSRFKey == nil {
		// sessions and forms do not survive a restart without a fixed key
		cfg.CSRFKey = make([]byte, 32)
		if _, err := rand.Read(cfg.CSRFKey); err != nil {
			return Config{}, fmt.Errorf("generate csrf key: %w", err)
		}
		slog.Warn("config_event", "event", "csrf_key_generated", "env", cfg.Env)
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c Config) Validate() error {
	if c.IsProduction() && len(c.CSRFKey) == 0 {
		return ErrMissingCSRFKey
	}
	if c.CSRFKey != nil && len(c.CSRFKey) != 32 {
		return ErrBadCSRFKey
	}
	if c.RateLimit <= 0 {
		return ErrBadRateLimit
	}
	return nil
}
