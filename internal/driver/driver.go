package driver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/emuerr"
	"github.com/Mohi32/signal-emulator/internal/overlay"
	"github.com/Mohi32/signal-emulator/internal/plan"
	"github.com/Mohi32/signal-emulator/internal/projector"
	"github.com/Mohi32/signal-emulator/internal/sequencer"
	"github.com/Mohi32/signal-emulator/internal/signalplan"
	"github.com/Mohi32/signal-emulator/internal/timeperiod"
	"github.com/Mohi32/signal-emulator/internal/xlog"
)

// Run emulates every controller in in.Models across every period in
// cfg.Periods, fanning out one goroutine per (controller, period) pair
// through an errgroup bounded by cfg.Workers (spec §5: independent
// (controller, period) emulations share no mutable state, since each owns
// its own Overlay, so the host may run them in parallel). A run-scoped
// correlation id is stored on ctx and added to the log line emitted for
// each skipped (controller, period); Diagnostic records do not carry it.
func Run(ctx context.Context, in Inputs, cfg Config) ([]Result, error) {
	runID := uuid.NewString()
	ctx = xlog.ContextWithRunID(ctx, runID)
	logger := xlog.WithComponent("driver")

	controllers := make([]controller.Key, 0, len(in.Models))
	for k := range in.Models {
		controllers = append(controllers, k)
	}

	type job struct {
		ctrl   controller.Key
		period string
	}
	var jobs []job
	for _, ctrl := range controllers {
		for _, period := range cfg.Periods {
			jobs = append(jobs, job{ctrl: ctrl, period: period})
		}
	}

	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}

	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res, err := emulateOne(in, cfg, j.ctrl, j.period)
			if err != nil {
				// Per spec §5/§7, no core error aborts the batch: every
				// failure is scoped to its own (controller, period) and
				// recorded as a diagnostic, fatal or not.
				event := logger.Warn()
				if emuerr.IsFatal(err) {
					event = logger.Error()
				}
				event.
					Str("run_id", runID).
					Str("controller", j.ctrl.String()).
					Str("period", j.period).
					Err(err).
					Msg("controller period emulation skipped")
				results[i] = Result{Controller: j.ctrl, Period: j.period,
					Diagnostics: []emuerr.Diagnostic{emuerr.NewDiagnostic("driver", err, j.ctrl.String(), j.period)}}
				return nil
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// emulateOne runs the full §4.4 algorithm for one (controller, period).
func emulateOne(in Inputs, cfg Config, ctrl controller.Key, period string) (Result, error) {
	model, ok := in.Models[ctrl]
	if !ok {
		return Result{}, fmt.Errorf("driver: %w: %s", emuerr.ErrNoStagesForController, ctrl)
	}

	registry := in.Periods
	if registry == nil {
		registry = timeperiod.Default()
	}
	longName := ""
	if p, ok := registry.Get(period); ok {
		longName = p.LongName
	}

	ov := overlay.New(model, period)
	seqCfg := cfg.Sequencer
	if seqCfg.DefaultPedCallRate == nil {
		seqCfg = sequencer.DefaultConfig()
	}

	var diags []emuerr.Diagnostic
	var streamPlans []streamPlan
	for _, stream := range model.AllStreams() {
		streamKey := controller.StreamKey{Controller: ctrl, StreamNum: stream.StreamNum}
		p, ok := selectPlan(in.Plans, streamKey, period, longName, in.Timetable)
		if !ok {
			diags = append(diags, emuerr.NewDiagnostic("driver", emuerr.ErrMissingPlanForStream, ctrl.String(), fmt.Sprint(stream.StreamNum)))
			continue
		}
		items := in.Plans.SequenceItems(plan.Key{Controller: ctrl, Stream: stream.StreamNum, Number: p.Number})
		streamPlans = append(streamPlans, streamPlan{stream: stream, plan: p, items: items})
	}

	if len(streamPlans) == 0 {
		return Result{}, fmt.Errorf("driver: %w: %s/%s", emuerr.ErrNoStagesForController, ctrl, period)
	}

	maxStage := 0
	for _, s := range model.AllStages() {
		if s.StageNum > maxStage {
			maxStage = s.StageNum
		}
	}
	cycle := harmonizedCycleTime(ctrl, streamPlans[0].plan, in.Observations, maxStage)

	out := signalplan.Plan{Controller: ctrl, Period: period, CycleTime: cycle}
	var timings []signalplan.PhaseTiming

	for _, sp := range streamPlans {
		seqIn := sequencer.Inputs{
			Model:        model,
			Overlay:      ov,
			Observations: in.Observations,
			CycleTime:    cycle,
			Period:       period,
			Config:       seqCfg,
		}
		seqResult, err := sequencer.Build(seqIn, sp.stream, model.Info.IsPedestrian, sp.items)
		if err != nil {
			diags = append(diags, emuerr.NewDiagnostic("driver", err, ctrl.String(), fmt.Sprint(sp.stream.StreamNum)))
			continue
		}
		diags = append(diags, seqResult.Diagnostics...)

		stages, err := signalplan.ComputeStages(model, in.Observations, ctrl, cycle, model.Info.IsPedestrian, seqResult.Items)
		if err != nil {
			return Result{}, err
		}
		out.Streams = append(out.Streams, signalplan.Stream{Controller: ctrl, StreamNum: sp.stream.StreamNum, Stages: stages})

		streamTimings, err := projector.Project(model, ov, ctrl, period, cycle, stages)
		if err != nil {
			return Result{}, err
		}
		timings = append(timings, streamTimings...)
	}

	return Result{Controller: ctrl, Period: period, Plan: out, Timings: timings, Diagnostics: diags}, nil
}
