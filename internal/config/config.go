package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the application configuration
type Config struct {
	HTTPAddr      string
	DBConnStr     string
	RedisAddr     string
	NATSURL       string
	SessionTTL    time.Duration
	TimeZone      *time.Location
	CatalogFile   string
	JournalDir    string
	StatsInterval time.Duration
}

// Load loads the configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	sessionTTL, err := getDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	statsInterval, err := getDuration("STATS_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	zone, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	return &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		DBConnStr:     os.Getenv("DB_CONN_STR"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		NATSURL:       os.Getenv("NATS_URL"),
		SessionTTL:    sessionTTL,
		TimeZone:      zone,
		CatalogFile:   os.Getenv("CATALOG_FILE"),
		JournalDir:    getEnv("JOURNAL_DIR", "./journal"),
		StatsInterval: statsInterval,
	}, nil
}

// Validate checks the settings the planner service cannot run without
func (c *Config) Validate() error {
	if c.DBConnStr == "" {
		return fmt.Errorf("DB_CONN_STR environment variable is required")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR environment variable is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("STATS_INTERVAL must be positive")
	}
	return nil
}

// SetupLogging configures the global logger. Output is human readable
// unless LOG_FORMAT=JSON; DEBUG=YES enables debug level.
func SetupLogging(out io.Writer) {
	if os.Getenv("LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}

	if os.Getenv("DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
