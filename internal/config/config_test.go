package config

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.DBPath != "outreach.db" || cfg.Env != "development" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.SlowQuery != 100*time.Millisecond || cfg.RateLimit != 10 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.CSRFKey) != 32 {
		t.Errorf("generated key has %d bytes, want 32", len(cfg.CSRFKey))
	}
	if cfg.Location != time.UTC {
		t.Errorf("location = %v", cfg.Location)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	key := strings.Repeat("ab", 32)
	cfg, err := FromEnv(envMap(map[string]string{
		"OUTREACH_ADDR":          "127.0.0.1:9000",
		"OUTREACH_ENV":           EnvProduction,
		"OUTREACH_CSRF_KEY":      key,
		"OUTREACH_LOG_LEVEL":     "debug",
		"OUTREACH_SLOW_QUERY_MS": "250",
		"OUTREACH_RATE_LIMIT":    "50",
		"OUTREACH_TIMEZONE":      "America/Chicago",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.IsProduction() || cfg.Addr != "127.0.0.1:9000" || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SlowQuery != 250*time.Millisecond || cfg.RateLimit != 50 || cfg.CSRFKey[0] != 0xab {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Location.String() != "America/Chicago" {
		t.Errorf("location = %v", cfg.Location)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"production without key", map[string]string{"OUTREACH_ENV": EnvProduction}, ErrMissingCSRFKey},
		{"short key", map[string]string{"OUTREACH_CSRF_KEY": "abcd"}, ErrBadCSRFKey},
		{"non-hex key", map[string]string{"OUTREACH_CSRF_KEY": strings.Repeat("zz", 32)}, ErrBadCSRFKey},
		{"rate limit", map[string]string{"OUTREACH_RATE_LIMIT": "0"}, ErrBadRateLimit},
		{"slow query", map[string]string{"OUTREACH_SLOW_QUERY_MS": "fast"}, ErrBadSlowQuery},
		{"log level", map[string]string{"OUTREACH_LOG_LEVEL": "loud"}, ErrBadLogLevel},
		{"timezone", map[string]string{"OUTREACH_TIMEZONE": "Mars/Olympus"}, ErrBadTimezone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromEnv(envMap(tt.env)); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
