package config

import "fmt"

// Validate checks that cfg's required fields are set and internally
// consistent before a run starts, mirroring the teacher's
// config.Validate(cfg) final-pass check in Loader.Load.
func Validate(cfg AppConfig) error {
	if cfg.ControllerDir == "" {
		return fmt.Errorf("config: controller_dir must not be empty")
	}
	if cfg.PlanDir == "" {
		return fmt.Errorf("config: plan_dir must not be empty")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("config: output_dir must not be empty")
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("config: workers must be >= 0, got %d", cfg.Workers)
	}
	if cfg.LegacyNoBitsPulseOffset < 0 {
		return fmt.Errorf("config: legacy_no_bits_pulse_offset must be >= 0, got %d", cfg.LegacyNoBitsPulseOffset)
	}
	for period, rate := range cfg.PedCallRate {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("config: ped_call_rate[%s] must be in [0,1], got %v", period, rate)
		}
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log_level must be one of debug/info/warn/error, got %q", cfg.LogLevel)
	}
	return nil
}
