// Package signalplan holds the engine's output stage-schedule records
// (spec §3: SignalPlan / SignalPlanStream / SignalPlanStage / PhaseTiming)
// and the Stage-Length Computation (spec §4.7) that turns a Sequencer
// result into per-stage total/interstage/green lengths, grounded on
// signal_plan.py's SignalPlan / SignalPlanStream / SignalPlanStage
// dataclasses and SignalPlans.add_from_stream_plan_dict.
package signalplan

import "github.com/Mohi32/signal-emulator/internal/controller"

// Stage is one stage's slot within a stream's cyclic schedule.
type Stage struct {
	StageNum          int
	PulsePoint        int
	TotalLength       int
	InterstageLength  int
	GreenLength       int
	EffectiveCallRate float64
}

// Stream is one stream's full cyclic stage schedule.
type Stream struct {
	Controller controller.Key
	StreamNum  int
	Stages     []Stage
}

// Plan is one controller×period's complete output: every active stream's
// schedule, sharing one harmonized cycle time.
type Plan struct {
	Controller controller.Key
	Period     string
	CycleTime  int
	Streams    []Stream
}

// PhaseTiming is one (start, end) interval a phase holds right of way for,
// grounded on controller.py PhaseTiming / signal_plan.py's emitted
// PhaseTiming records.
type PhaseTiming struct {
	Controller controller.Key
	Phase      controller.PhaseRef
	Period     string
	Index      int
	Start      int
	End        int
}
