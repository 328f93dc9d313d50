// Package driver implements the Signal-Plan Driver (spec §4.4): the
// top-level orchestrator that, per controller and time period, selects a
// plan per stream, harmonizes cycle times across streams, invokes the
// Stage Sequencer and Phase Projector, and publishes the resulting
// SignalPlan/PhaseTiming records.
//
// Grounded on emulator.py's Emulator.emulate_controller /
// get_best_matching_plan, and on the teacher's internal/daemon.App for the
// parallel-fan-out orchestration shape (spec §5 permits independent
// (controller, period) emulations to run concurrently since each owns its
// own Overlay).
package driver

import (
	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/emuerr"
	"github.com/Mohi32/signal-emulator/internal/observation"
	"github.com/Mohi32/signal-emulator/internal/plan"
	"github.com/Mohi32/signal-emulator/internal/sequencer"
	"github.com/Mohi32/signal-emulator/internal/signalplan"
	"github.com/Mohi32/signal-emulator/internal/timeperiod"
)

// Config bundles the Driver's tunables.
type Config struct {
	// Workers caps how many (controller, period) emulations run
	// concurrently. Zero means unbounded (errgroup.SetLimit is skipped).
	Workers int
	// Periods is the set of period names to emulate; the caller is
	// responsible for resolving them against internal/timeperiod.
	Periods []string
	// Sequencer carries the Open-Question constants (legacy pulse offset,
	// default pedestrian call rates) the Sequencer needs; replaced as a
	// whole by sequencer.DefaultConfig() when DefaultPedCallRate is nil.
	Sequencer sequencer.Config
}

// Inputs bundles the read-only data a Run call needs. Models, Plans,
// Observations and Timetable are shared read-only across every
// (controller, period) goroutine; nothing in the Driver mutates them.
type Inputs struct {
	Models       map[controller.Key]*controller.Model
	Plans        *plan.Store
	Observations *observation.Store
	Timetable    *plan.Timetable
	// Periods resolves a period name to its long name for plan-name
	// matching (spec §4.4 step 1); falls back to timeperiod.Default()
	// when nil.
	Periods *timeperiod.Registry
}

// Result is one (controller, period) emulation's output.
type Result struct {
	Controller  controller.Key
	Period      string
	Plan        signalplan.Plan
	Timings     []signalplan.PhaseTiming
	Diagnostics []emuerr.Diagnostic
}

// streamPlan is a stream whose plan selection succeeded (spec §4.4 step
// 1): the stream with its usable (Plan, items) pair. Streams with no
// matching plan get no streamPlan; emulateOne records a diagnostic instead.
type streamPlan struct {
	stream controller.Stream
	plan   plan.Plan
	items  []plan.PlanSequenceItem
}
