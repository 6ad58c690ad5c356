// Package config provides small environment-variable helpers with defaults.
// Unlike internal/pkg/config these do not track fallbacks in metrics; they
// are for settings where a silent default is fine.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// GetEnvString returns the variable's value, or defaultValue when unset or
// empty.
func GetEnvString(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt returns the variable parsed as an int, or defaultValue with a
// warning when unset or malformed.
func GetEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using default",
			slog.String("key", key),
			slog.String("value", value),
			slog.Int("default", defaultValue))
		return defaultValue
	}
	return n
}

// GetEnvDuration returns the variable parsed as a time.Duration, or
// defaultValue with a warning when unset or malformed.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default",
			slog.String("key", key),
			slog.String("value", value),
			slog.Duration("default", defaultValue))
		return defaultValue
	}
	return d
}

// GetEnvBool returns the variable parsed as a bool, or defaultValue with a
// warning when unset or malformed.
func GetEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("invalid boolean in environment, using default",
			slog.String("key", key),
			slog.String("value", value),
			slog.Bool("default", defaultValue))
		return defaultValue
	}
	return b
}
