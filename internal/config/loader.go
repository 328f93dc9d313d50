package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader loads an AppConfig with ENV > File > Defaults precedence,
// mirroring the teacher's internal/config.Loader (loader.go): defaults are
// applied first, a strict YAML file is merged on top (unknown keys reject
// the whole file, see ErrUnknownConfigField), and SIGEMU_* environment
// variables have the final word.
type Loader struct {
	configPath string
	version    string
}

// NewLoader builds a Loader for the given (possibly empty) config file
// path and build version.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load resolves the final AppConfig.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.mergeFile(&cfg); err != nil {
			return AppConfig{}, fmt.Errorf("config: load file: %w", err)
		}
	}

	l.mergeEnv(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// mergeFile strictly decodes the configured YAML file onto cfg, rejecting
// any key AppConfig does not declare.
func (l *Loader) mergeFile(cfg *AppConfig) error {
	path := filepath.Clean(l.configPath)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-provided via CLI flag
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// mergeEnv applies SIGEMU_* overrides, the final precedence tier.
func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.ControllerDir = parseStringEnv("SIGEMU_CONTROLLER_DIR", cfg.ControllerDir)
	cfg.PlanDir = parseStringEnv("SIGEMU_PLAN_DIR", cfg.PlanDir)
	cfg.ObservationDir = parseStringEnv("SIGEMU_OBSERVATION_DIR", cfg.ObservationDir)
	cfg.TimetableDir = parseStringEnv("SIGEMU_TIMETABLE_DIR", cfg.TimetableDir)
	cfg.OutputDir = parseStringEnv("SIGEMU_OUTPUT_DIR", cfg.OutputDir)
	cfg.StorePath = parseStringEnv("SIGEMU_STORE_PATH", cfg.StorePath)
	cfg.MetricsTextfilePath = parseStringEnv("SIGEMU_METRICS_TEXTFILE_PATH", cfg.MetricsTextfilePath)
	cfg.LogLevel = parseStringEnv("SIGEMU_LOG_LEVEL", cfg.LogLevel)
	cfg.Workers = parseIntEnv("SIGEMU_WORKERS", cfg.Workers)
	cfg.LegacyNoBitsPulseOffset = parseIntEnv("SIGEMU_LEGACY_NO_BITS_PULSE_OFFSET", cfg.LegacyNoBitsPulseOffset)
	cfg.PedOnly = parseBoolEnv("SIGEMU_PED_ONLY", cfg.PedOnly)
	for _, period := range []string{"AM", "OP", "PM"} {
		key := "SIGEMU_PED_CALL_RATE_" + period
		if cfg.PedCallRate == nil {
			cfg.PedCallRate = map[string]float64{}
		}
		cfg.PedCallRate[period] = parseFloatEnv(key, cfg.PedCallRate[period])
	}
}
