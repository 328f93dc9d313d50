// Package xlog provides the structured logging conventions shared by every
// package in this module: a package-level configurable base logger, and
// context-carried correlation fields (run id, controller key, period id)
// that loggers obtained through FromContext add to their lines; loggers
// from Base and WithComponent do not read the context.
package xlog

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config configures the global logger.
type Config struct {
	Level   string    // "debug", "info", "warn", "error"; default "info"
	Output  io.Writer // default os.Stdout
	Service string    // default "signal-emulator"
}

var (
	mu         sync.RWMutex
	base       zerolog.Logger
	configured bool
)

// Configure (re)initializes the global logger. Safe to call more than once;
// later calls replace earlier configuration.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	w := cfg.Output
	if w == nil {
		w = os.Stdout
	}
	service := cfg.Service
	if service == "" {
		service = "signal-emulator"
	}

	base = zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Logger()
	configured = true
}

func ensureInitialized() {
	mu.RLock()
	ok := configured
	mu.RUnlock()
	if !ok {
		Configure(Config{})
	}
}

// WithComponent returns a child logger tagged with the given component name.
func WithComponent(name string) zerolog.Logger {
	ensureInitialized()
	mu.RLock()
	defer mu.RUnlock()
	return base.With().Str("component", name).Logger()
}

// Base returns the current global base logger.
func Base() zerolog.Logger {
	ensureInitialized()
	mu.RLock()
	defer mu.RUnlock()
	return base
}

type ctxKey string

const (
	runIDKey        ctxKey = "run_id"
	controllerKeyKey ctxKey = "controller_key"
	periodKey       ctxKey = "period_id"
)

// ContextWithRunID stores a run correlation id in the context.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// ContextWithControllerKey stores the active controller key in the context.
func ContextWithControllerKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, controllerKeyKey, key)
}

// ContextWithPeriod stores the active time-period id in the context.
func ContextWithPeriod(ctx context.Context, period string) context.Context {
	return context.WithValue(ctx, periodKey, period)
}

// FromContext returns a logger enriched with whatever correlation fields are
// present on ctx (run id, controller key, period id).
func FromContext(ctx context.Context) zerolog.Logger {
	logger := Base()
	if ctx == nil {
		return logger
	}
	builder := logger.With()
	added := false
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		builder = builder.Str("run_id", v)
		added = true
	}
	if v, ok := ctx.Value(controllerKeyKey).(string); ok && v != "" {
		builder = builder.Str("controller_key", v)
		added = true
	}
	if v, ok := ctx.Value(periodKey).(string); ok && v != "" {
		builder = builder.Str("period_id", v)
		added = true
	}
	if !added {
		return logger
	}
	return builder.Logger()
}
