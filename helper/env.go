package helper

import (
	"fmt"
	"os"
	"strconv"
)

// GetEnvString returns the value of key or fallback if unset.
func GetEnvString(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// GetEnvInt parses key as int, returning fallback if unset.
func GetEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback, NewError("parse env", fmt.Errorf("%s: %w", key, err))
	}
	return parsed, nil
}

// GetEnvFloat parses key as float64, returning fallback if unset.
func GetEnvFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback, NewError("parse env", fmt.Errorf("%s: %w", key, err))
	}
	return parsed, nil
}

// GetEnvBool parses key as bool, returning fallback if unset.
func GetEnvBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, NewError("parse env", fmt.Errorf("%s: %w", key, err))
	}
	return parsed, nil
}
