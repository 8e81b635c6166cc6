package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DB_CONN_STR", "REDIS_ADDR", "NATS_URL", "SESSION_TTL", "TIMEZONE", "CATALOG_FILE", "JOURNAL_DIR", "STATS_INTERVAL"} {
		t.Setenv(key, "")
	}

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if config.HTTPAddr != ":8080" {
		t.Errorf("Expected default HTTPAddr = :8080, got %s", config.HTTPAddr)
	}
	if config.SessionTTL != 24*time.Hour {
		t.Errorf("Expected default SessionTTL = 24h, got %v", config.SessionTTL)
	}
	if config.TimeZone != time.UTC {
		t.Errorf("Expected default TimeZone = UTC, got %v", config.TimeZone)
	}
	if config.JournalDir != "./journal" {
		t.Errorf("Expected default JournalDir = ./journal, got %s", config.JournalDir)
	}
	if config.StatsInterval != 5*time.Minute {
		t.Errorf("Expected default StatsInterval = 5m, got %v", config.StatsInterval)
	}
	if config.CatalogFile != "" {
		t.Errorf("Expected no CatalogFile, got %s", config.CatalogFile)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("DB_CONN_STR", "postgres://planner@localhost/planner")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("TIMEZONE", "America/New_York")
	t.Setenv("CATALOG_FILE", "/data/airports.csv")
	t.Setenv("JOURNAL_DIR", "/var/lib/journal")
	t.Setenv("STATS_INTERVAL", "30s")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if config.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("HTTPAddr = %s", config.HTTPAddr)
	}
	if config.DBConnStr != "postgres://planner@localhost/planner" {
		t.Errorf("DBConnStr = %s", config.DBConnStr)
	}
	if config.RedisAddr != "localhost:6379" || config.NATSURL != "nats://localhost:4222" {
		t.Errorf("RedisAddr = %s, NATSURL = %s", config.RedisAddr, config.NATSURL)
	}
	if config.SessionTTL != 90*time.Minute {
		t.Errorf("SessionTTL = %v", config.SessionTTL)
	}
	if config.TimeZone.String() != "America/New_York" {
		t.Errorf("TimeZone = %v", config.TimeZone)
	}
	if config.CatalogFile != "/data/airports.csv" || config.JournalDir != "/var/lib/journal" {
		t.Errorf("CatalogFile = %s, JournalDir = %s", config.CatalogFile, config.JournalDir)
	}
	if config.StatsInterval != 30*time.Second {
		t.Errorf("StatsInterval = %v", config.StatsInterval)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SESSION_TTL", "a day"},
		{"STATS_INTERVAL", "5 minutes"},
		{"TIMEZONE", "Mars/Olympus_Mons"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			config, err := Load()
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if config != nil {
				t.Error("Load() should return nil config on error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error should name %s, got: %v", tt.key, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{DBConnStr: "postgres://x", RedisAddr: "localhost:6379", SessionTTL: time.Hour, StatsInterval: time.Minute}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no database", func(c *Config) { c.DBConnStr = "" }, "DB_CONN_STR"},
		{"no redis", func(c *Config) { c.RedisAddr = "" }, "REDIS_ADDR"},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, "SESSION_TTL"},
		{"zero stats interval", func(c *Config) { c.StatsInterval = 0 }, "STATS_INTERVAL"},
		{"negative stats interval", func(c *Config) { c.StatsInterval = -time.Second }, "STATS_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %s", err, tt.want)
			}
		})
	}
}

func TestLoad_ZeroStatsIntervalFailsValidation(t *testing.T) {
	t.Setenv("DB_CONN_STR", "postgres://planner@localhost/planner")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("STATS_INTERVAL", "0s")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := config.Validate(); err == nil {
		t.Error("Validate() accepted a zero STATS_INTERVAL")
	}
}

func TestSetupLogging(t *testing.T) {
	defer func(l zerolog.Logger) { log.Logger = l }(log.Logger)

	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("DEBUG", "YES")

	var buf bytes.Buffer
	SetupLogging(&buf)
	log.Debug().Str("session", "s1").Msg("debug line")

	if !strings.Contains(buf.String(), `"session":"s1"`) {
		t.Errorf("expected JSON debug output, got %q", buf.String())
	}

	t.Setenv("DEBUG", "")
	buf.Reset()
	SetupLogging(&buf)
	log.Debug().Msg("hidden")
	log.Info().Msg("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output at info level: %q", buf.String())
	}
}
