package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Result is the outcome of loading one configuration value. When the
// environment value is missing the default is used silently; when it is
// present but fails to parse or validate, the default is used and
// FallbackApplied is set with a human-readable Warning.
type Result[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
}

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func fallback[T any](envKey, raw string, err error, def T) Result[T] {
	return Result[T]{
		Value:           def,
		Warning:         fmt.Sprintf("invalid %s=%q: %v, falling back to default '%v'", envKey, raw, err, def),
		FallbackApplied: true,
	}
}

// LoadEnvString returns the environment value or def when unset. No
// validation is performed.
func LoadEnvString(envKey, def string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return def
}

// LoadEnv loads a string value with optional validation.
func LoadEnv(envKey, def string, validate func(string) error) Result[string] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ok(def)
	}
	if validate != nil {
		if err := validate(raw); err != nil {
			return fallback(envKey, raw, err, def)
		}
	}
	return ok(raw)
}

// LoadEnvDuration loads a Go duration string ("30s", "5m", "1h30m") with
// optional validation.
func LoadEnvDuration(envKey string, def time.Duration, validate func(time.Duration) error) Result[time.Duration] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ok(def)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback(envKey, raw, err, def)
	}
	if validate != nil {
		if err := validate(d); err != nil {
			return fallback(envKey, raw, err, def)
		}
	}
	return ok(d)
}

// LoadEnvInt loads an integer with optional validation.
func LoadEnvInt(envKey string, def int, validate func(int) error) Result[int] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ok(def)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback(envKey, raw, err, def)
	}
	if validate != nil {
		if err := validate(n); err != nil {
			return fallback(envKey, raw, err, def)
		}
	}
	return ok(n)
}

// LoadEnvBool loads a boolean in strconv.ParseBool syntax
// ("1", "t", "true", "0", "f", "false" in any case).
func LoadEnvBool(envKey string, def bool) Result[bool] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ok(def)
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback(envKey, raw, err, def)
	}
	return ok(b)
}
