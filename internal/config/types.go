// Package config loads and validates the CLI's AppConfig, porting the
// teacher's internal/config ENV > File > Defaults precedence pattern
// (internal/config/loader.go) to this engine's inputs: controller/plan/
// observation data directories, time-period definitions, the two
// Open-Question constants spec §9 leaves configurable rather than
// hardcoded, output sink paths, and the ped_only flag (spec §6).
package config

import "github.com/Mohi32/signal-emulator/internal/timeperiod"

// AppConfig is the fully resolved configuration for one CLI invocation.
type AppConfig struct {
	// ControllerDir, PlanDir, ObservationDir point at the (externally
	// parsed, per spec §1's Non-goals) data directories this run reads
	// controller/plan/observation YAML fixtures from.
	ControllerDir   string `yaml:"controller_dir"`
	PlanDir         string `yaml:"plan_dir"`
	ObservationDir  string `yaml:"observation_dir"`
	TimetableDir    string `yaml:"timetable_dir"`

	// OutputDir is where internal/sink writes PhaseTiming/SignalPlanStream
	// JSON records.
	OutputDir string `yaml:"output_dir"`

	// StorePath is the modernc.org/sqlite cache file internal/store reads
	// and writes; empty disables caching.
	StorePath string `yaml:"store_path"`

	// MetricsTextfilePath is where internal/metrics dumps its Prometheus
	// textfile after a batch run; empty disables the dump.
	MetricsTextfilePath string `yaml:"metrics_textfile_path"`

	// Periods overrides the built-in AM/OP/PM time-period table (spec §2.1);
	// empty means use timeperiod.Default().
	Periods []PeriodConfig `yaml:"periods"`

	// PedCallRate is the per-period default pedestrian/PV-PX effective
	// call rate used when no M37 observation exists (spec §9 Open
	// Question, spec §4.5's "configured per-period default").
	PedCallRate map[string]float64 `yaml:"ped_call_rate"`

	// LegacyNoBitsPulseOffset is the "+2" constant added to a transition's
	// pulse_time when the commanding plan item has neither F-bits nor
	// P-bits (spec §9 Open Question; §4.5).
	LegacyNoBitsPulseOffset int `yaml:"legacy_no_bits_pulse_offset"`

	// PedOnly, when true, restricts the Driver to controllers flagged
	// pedestrian (Info.IsPedestrian). Streams flagged pv_px_mode on a
	// controller not flagged pedestrian are dropped along with it.
	PedOnly bool `yaml:"ped_only"`

	// Workers caps the Driver's concurrent (controller, period) fan-out;
	// 0 means unbounded.
	Workers int `yaml:"workers"`

	// LogLevel configures internal/xlog's global level ("debug", "info",
	// "warn", "error").
	LogLevel string `yaml:"log_level"`

	// Version is stamped from the binary's build info, never read from a
	// config file.
	Version string `yaml:"-"`
}

// PeriodConfig is the YAML-facing mirror of timeperiod.Period.
type PeriodConfig struct {
	Name      string `yaml:"name"`
	LongName  string `yaml:"long_name"`
	StartSecs int    `yaml:"start_secs"`
	EndSecs   int    `yaml:"end_secs"`
}

// PeriodRegistry builds a timeperiod.Registry from cfg.Periods, falling
// back to timeperiod.Default() when none are configured.
func (c AppConfig) PeriodRegistry() *timeperiod.Registry {
	if len(c.Periods) == 0 {
		return timeperiod.Default()
	}
	periods := make([]timeperiod.Period, 0, len(c.Periods))
	for i, p := range c.Periods {
		periods = append(periods, timeperiod.Period{
			Name:      p.Name,
			LongName:  p.LongName,
			Index:     i + 1,
			StartSecs: p.StartSecs,
			EndSecs:   p.EndSecs,
		})
	}
	return timeperiod.NewRegistry(periods)
}

// PeriodNames returns the configured period names in order, for the
// Driver's Config.Periods field.
func (c AppConfig) PeriodNames() []string {
	reg := c.PeriodRegistry()
	out := make([]string, 0, len(reg.All()))
	for _, p := range reg.All() {
		out = append(out, p.Name)
	}
	return out
}

// defaultPedCallRate mirrors sequencer.DefaultConfig()'s AM/OP/PM table,
// duplicated here (rather than imported) so internal/config has no
// dependency on internal/sequencer; cmd/signal-emulator wires the two together.
func defaultPedCallRate() map[string]float64 {
	return map[string]float64{"AM": 0.5, "OP": 0.5, "PM": 0.5}
}

// Defaults returns the built-in configuration applied before file and
// environment overrides.
func Defaults() AppConfig {
	return AppConfig{
		ControllerDir:           "data/controllers",
		PlanDir:                 "data/plans",
		ObservationDir:          "data/observations",
		TimetableDir:            "data/timetable",
		OutputDir:               "out",
		LegacyNoBitsPulseOffset: 2,
		PedCallRate:             defaultPedCallRate(),
		Workers:                 0,
		LogLevel:                "info",
	}
}
