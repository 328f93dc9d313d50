// signal-emulator is the batch CLI entry point for the emulation engine.
//
// Usage:
//
//	signal-emulator emulate --config <file>
//	signal-emulator validate --config <file>
//
// Exit codes:
//   - 0: success (emulate) / configuration and data are valid (validate)
//   - 1: fatal failure (emulate) / invalid configuration or data (validate)
//   - 2: usage error (missing subcommand or flag)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Mohi32/signal-emulator/internal/config"
	"github.com/Mohi32/signal-emulator/internal/driver"
	"github.com/Mohi32/signal-emulator/internal/emuerr"
	"github.com/Mohi32/signal-emulator/internal/fixture"
	"github.com/Mohi32/signal-emulator/internal/metrics"
	"github.com/Mohi32/signal-emulator/internal/sequencer"
	"github.com/Mohi32/signal-emulator/internal/sink"
	"github.com/Mohi32/signal-emulator/internal/store"
	"github.com/Mohi32/signal-emulator/internal/version"
	"github.com/Mohi32/signal-emulator/internal/xlog"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "emulate":
		os.Exit(runEmulate(os.Args[2:]))
	case "validate":
		os.Exit(runValidate(os.Args[2:]))
	case "--version", "-version":
		fmt.Println(version.String())
		os.Exit(0)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  signal-emulator emulate --config <file>")
	fmt.Fprintln(os.Stderr, "  signal-emulator validate --config <file>")
}

func loadConfig(fs *flag.FlagSet, args []string) (config.AppConfig, bool) {
	configPath := fs.String("config", "", "path to config file (YAML)")
	showVersion := fs.Bool("version", false, "print version and exit")
	_ = fs.Parse(args)

	if *showVersion {
		fmt.Println(version.String())
		return config.AppConfig{}, false
	}

	loader := config.NewLoader(*configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	return cfg, true
}

// runEmulate parses the emulate subcommand's flags (including --watch, the
// long-lived scheduler mode SPEC_FULL's Configuration section describes)
// and runs the engine at least once, then either returns or keeps running
// under a config.Watcher until the process receives SIGINT/SIGTERM.
func runEmulate(args []string) int {
	fs := flag.NewFlagSet("emulate", flag.ExitOnError)
	watch := fs.Bool("watch", false, "reload the config file and re-emulate on every change, running until interrupted")
	cfg, ok := loadConfig(fs, args)
	if !ok {
		return 0
	}

	xlog.Configure(xlog.Config{Level: cfg.LogLevel})
	logger := xlog.WithComponent("cmd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if code := runEmulateOnce(ctx, cfg, logger); code != 0 || !*watch {
		return code
	}

	configPath := fs.Lookup("config").Value.String()
	watcher := config.NewWatcher(config.NewLoader(configPath, version.Version), configPath, func(reloaded config.AppConfig) {
		runEmulateOnce(ctx, reloaded, logger)
	})
	if err := watcher.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to start config watcher")
		return 1
	}
	<-ctx.Done()
	return 0
}

// runEmulateOnce loads controller/plan/observation data per cfg, runs the
// Driver once, and writes results and metrics. Called directly for a
// one-shot `emulate` invocation, and again on every reload when --watch is
// set.
func runEmulateOnce(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) int {
	cache, err := openCache(cfg.StorePath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open fixture cache")
		return 1
	}
	if cache != nil {
		defer cache.Close()
	}

	models, err := fixture.LoadControllerDirCached(ctx, cfg.ControllerDir, cache)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load controllers")
		return 1
	}
	plans, timetable, err := fixture.LoadPlanDirCached(ctx, cfg.PlanDir, cache)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load plans")
		return 1
	}
	observations, err := fixture.LoadObservationDirCached(ctx, cfg.ObservationDir, cache)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load observations")
		return 1
	}

	if cfg.PedOnly {
		for k, m := range models {
			if !m.Info.IsPedestrian {
				delete(models, k)
			}
		}
	}

	driverCfg := driver.Config{
		Workers: cfg.Workers,
		Periods: cfg.PeriodNames(),
		Sequencer: sequencer.Config{
			LegacyNoBitsPulseOffset: cfg.LegacyNoBitsPulseOffset,
			DefaultPedCallRate:      cfg.PedCallRate,
		},
	}
	inputs := driver.Inputs{
		Models:       models,
		Plans:        plans,
		Observations: observations,
		Timetable:    timetable,
		Periods:      cfg.PeriodRegistry(),
	}

	results, err := driver.Run(ctx, inputs, driverCfg)
	if err != nil {
		logger.Error().Err(err).Msg("emulation run aborted")
		return 1
	}

	reg := metrics.New()
	fatal := false
	for _, res := range results {
		outcome := "ok"
		for _, d := range res.Diagnostics {
			if emuerr.IsFatal(d.Err) {
				outcome = "fatal"
				fatal = true
			} else if outcome == "ok" {
				outcome = "warning"
			}
		}
		reg.ObserveResult(res.Period, outcome, 0, toMetricsDiagnostics(res.Diagnostics), len(res.Timings))
	}

	if _, err := sink.WriteResults(cfg.OutputDir, results); err != nil {
		logger.Error().Err(err).Msg("failed to write output")
		return 1
	}

	if cfg.MetricsTextfilePath != "" {
		if err := reg.WriteTextfile(cfg.MetricsTextfilePath); err != nil {
			logger.Warn().Err(err).Msg("failed to write metrics textfile")
		}
	}

	if fatal {
		return 1
	}
	return 0
}

// openCache opens the fixture read-through cache at path, or returns a nil
// *store.Store (caching disabled) when path is empty.
func openCache(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	return store.Open(path)
}

func toMetricsDiagnostics(diags []emuerr.Diagnostic) []metrics.Diagnostic {
	out := make([]metrics.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, metrics.Diagnostic{Severity: d.Severity.String(), Component: d.Component})
	}
	return out
}

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfg, ok := loadConfig(fs, args)
	if !ok {
		return 0
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration invalid: %v\n", err)
		return 1
	}

	ctx := context.Background()
	cache, err := openCache(cfg.StorePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open fixture cache: %v\n", err)
		return 1
	}
	if cache != nil {
		defer cache.Close()
	}

	models, err := fixture.LoadControllerDirCached(ctx, cfg.ControllerDir, cache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "controller data invalid: %v\n", err)
		return 1
	}
	if _, _, err := fixture.LoadPlanDirCached(ctx, cfg.PlanDir, cache); err != nil {
		fmt.Fprintf(os.Stderr, "plan data invalid: %v\n", err)
		return 1
	}
	if _, err := fixture.LoadObservationDirCached(ctx, cfg.ObservationDir, cache); err != nil {
		fmt.Fprintf(os.Stderr, "observation data invalid: %v\n", err)
		return 1
	}

	var totalPhases, totalStages int
	for _, m := range models {
		stats := m.Stats()
		totalPhases += stats.Phases
		totalStages += stats.Stages
	}
	fmt.Printf("config and data are valid: %d controllers, %d phases, %d stages\n",
		len(models), totalPhases, totalStages)
	return 0
}
