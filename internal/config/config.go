// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
//
// Values come from the process environment, an optional .env file in the
// working directory, and command-line flags bound by the cmd package.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the matching service.
type Config struct {
	HTTPPort         string
	GRPCPort         string
	DatabaseURL      string
	DBMaxConns       int32
	RedisURL         string
	EventPrefix      string
	ReminderSchedule string        // cron spec, e.g. "@every 15m"
	ReminderHorizon  time.Duration // how far ahead reminders look
	MaxPerPage       int
	LogJSON          bool
	LogDebug         bool
}

func init() {
	viper.SetDefault("MATCHING_HTTP_PORT", "8083")
	viper.SetDefault("MATCHING_GRPC_PORT", "9083")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("EVENT_PREFIX", "")
	viper.SetDefault("REMINDER_SCHEDULE", "@every 15m")
	viper.SetDefault("REMINDER_HORIZON", "24h")
	viper.SetDefault("MATCHING_MAX_PER_PAGE", 100)
	viper.SetDefault("LOG_JSON", false)
	viper.SetDefault("LOG_DEBUG", false)
}

// Load reads the environment and returns a validated Config.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()
	viper.AutomaticEnv()

	dbURL := viper.GetString("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := viper.GetString("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	schedule := viper.GetString("REMINDER_SCHEDULE")
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("REMINDER_SCHEDULE %q is not a valid cron spec: %w", schedule, err)
	}

	horizon := viper.GetDuration("REMINDER_HORIZON")
	if horizon <= 0 {
		return nil, fmt.Errorf("REMINDER_HORIZON must be a positive duration, got %q", viper.GetString("REMINDER_HORIZON"))
	}

	maxPerPage := viper.GetInt("MATCHING_MAX_PER_PAGE")
	if maxPerPage < 1 {
		return nil, fmt.Errorf("MATCHING_MAX_PER_PAGE must be a positive integer, got %q", viper.GetString("MATCHING_MAX_PER_PAGE"))
	}

	maxConns := viper.GetInt32("DB_MAX_CONNS")
	if maxConns < 1 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be a positive integer, got %q", viper.GetString("DB_MAX_CONNS"))
	}

	return &Config{
		HTTPPort:         viper.GetString("MATCHING_HTTP_PORT"),
		GRPCPort:         viper.GetString("MATCHING_GRPC_PORT"),
		DatabaseURL:      dbURL,
		DBMaxConns:       maxConns,
		RedisURL:         redisURL,
		EventPrefix:      viper.GetString("EVENT_PREFIX"),
		ReminderSchedule: schedule,
		ReminderHorizon:  horizon,
		MaxPerPage:       maxPerPage,
		LogJSON:          viper.GetBool("LOG_JSON"),
		LogDebug:         viper.GetBool("LOG_DEBUG"),
	}, nil
}
