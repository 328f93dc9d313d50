package config

import (
	"os"
	"strconv"

	"github.com/Mohi32/signal-emulator/internal/xlog"
)

// parseStringEnv reads a SIGEMU_* string override, logging its source for
// observability, mirroring the teacher's ParseString/parseStringWithLogger.
func parseStringEnv(key, defaultValue string) string {
	logger := xlog.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		logger.Debug().Str("key", key).Str("source", "environment").Msg("using environment variable")
		return v
	}
	return defaultValue
}

// parseIntEnv reads a SIGEMU_* integer override, falling back to
// defaultValue on an empty or unparseable value.
func parseIntEnv(key string, defaultValue int) int {
	logger := xlog.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	return n
}

// parseFloatEnv reads a SIGEMU_* float override, falling back to
// defaultValue on an empty or unparseable value.
func parseFloatEnv(key string, defaultValue float64) float64 {
	logger := xlog.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid float in environment variable, using default")
		return defaultValue
	}
	return f
}

// parseBoolEnv reads a SIGEMU_* boolean override, falling back to
// defaultValue on an empty or unparseable value.
func parseBoolEnv(key string, defaultValue bool) bool {
	logger := xlog.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Msg("invalid boolean in environment variable, using default")
		return defaultValue
	}
	return b
}
