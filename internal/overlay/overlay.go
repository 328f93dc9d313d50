// Package overlay implements the Modification Overlay (spec §4.2): a
// period-scoped, read-through store of intergreen and phase-delay
// overrides written only by the Interstage Resolver's reduce-to-observed
// step (internal/interstage), and consulted by every other reader ahead of
// the controller's base values.
//
// Each (controller, period) emulation owns its own Overlay instance, which
// is what lets the Signal-Plan Driver run controllers and periods in
// parallel (spec §5): overlays never cross (controller, period)
// boundaries and are never shared between goroutines.
package overlay

import (
	"fmt"

	"github.com/Mohi32/signal-emulator/internal/controller"
)

// Overlay holds the period-scoped modified intergreens and phase delays for
// a single (controller, period) emulation, mirroring controller.py's
// ModifiedIntergreen / ModifiedPhaseDelay collections scoped to one
// time_period_id.
type Overlay struct {
	model  *controller.Model
	period string

	intergreens map[controller.IntergreenKey]controller.ModifiedIntergreen
	phaseDelays map[controller.PhaseDelayKey]controller.ModifiedPhaseDelay
}

// New builds an Overlay bound to model for the given period. model is only
// read, never mutated, by the Overlay; callers keep the base Controller
// Model shared read-only across every period's goroutine.
func New(model *controller.Model, period string) *Overlay {
	return &Overlay{
		model:       model,
		period:      period,
		intergreens: make(map[controller.IntergreenKey]controller.ModifiedIntergreen),
		phaseDelays: make(map[controller.PhaseDelayKey]controller.ModifiedPhaseDelay),
	}
}

// Period returns the period this overlay is scoped to.
func (o *Overlay) Period() string {
	return o.period
}

// IntergreenTime returns the clearance time between end and start,
// preferring an overlay entry over the base Intergreen, mirroring
// Intergreens.get_by_key(modified=True).
func (o *Overlay) IntergreenTime(ctrl controller.Key, end, start controller.PhaseRef) (int, bool) {
	key := controller.IntergreenKey{Controller: ctrl, EndPhase: end, StartPhase: start}
	if m, ok := o.intergreens[key]; ok {
		return m.Time, true
	}
	if ig, ok := o.model.Intergreen(ctrl, end, start); ok {
		return ig.Time, true
	}
	return 0, false
}

// PhaseDelayTime returns the delay for phase at the given transition,
// preferring an overlay entry over the base PhaseDelay, mirroring
// PhaseDelays.get_delay_time_by_stage_and_phase_keys(modified=True). A
// phase absent from both the overlay and the base is treated as a
// zero-delay phase, matching the original's default of 0 for untracked
// phases in a transition.
func (o *Overlay) PhaseDelayTime(ctrl controller.Key, endStage, startStage int, phase controller.PhaseRef) int {
	key := controller.PhaseDelayKey{Controller: ctrl, EndStage: endStage, StartStage: startStage, Phase: phase}
	if m, ok := o.phaseDelays[key]; ok {
		return m.DelayTime
	}
	if pd, ok := o.model.PhaseDelay(ctrl, endStage, startStage, phase); ok {
		return pd.DelayTime
	}
	return 0
}

// SetIntergreen writes a reduced intergreen time into the overlay. Callers
// (the Interstage Resolver) must only ever write a value no greater
// than the value previously in effect (spec §4.2: "overlays only ever
// lower a base value, never raise it"); SetIntergreen enforces that
// invariant and returns an error if violated.
func (o *Overlay) SetIntergreen(ctrl controller.Key, end, start controller.PhaseRef, newTime int) error {
	current, _ := o.IntergreenTime(ctrl, end, start)
	if newTime > current {
		return fmt.Errorf("overlay: refusing to raise intergreen %s->%s from %d to %d", end, start, current, newTime)
	}
	o.intergreens[controller.IntergreenKey{Controller: ctrl, EndPhase: end, StartPhase: start}] = controller.ModifiedIntergreen{
		Controller:   ctrl,
		Period:       o.period,
		EndPhase:     end,
		StartPhase:   start,
		Time:         newTime,
		OriginalTime: current,
	}
	return nil
}

// SetPhaseDelay writes a reduced phase-delay time into the overlay, under
// the same never-raise invariant as SetIntergreen.
func (o *Overlay) SetPhaseDelay(ctrl controller.Key, endStage, startStage int, phase controller.PhaseRef, newDelay int) error {
	current := o.PhaseDelayTime(ctrl, endStage, startStage, phase)
	if newDelay > current {
		return fmt.Errorf("overlay: refusing to raise phase delay %s@%d->%d from %d to %d", phase, endStage, startStage, current, newDelay)
	}
	o.phaseDelays[controller.PhaseDelayKey{Controller: ctrl, EndStage: endStage, StartStage: startStage, Phase: phase}] = controller.ModifiedPhaseDelay{
		Controller:    ctrl,
		Period:        o.period,
		EndStage:      endStage,
		StartStage:    startStage,
		Phase:         phase,
		DelayTime:     newDelay,
		OriginalDelay: current,
	}
	return nil
}

// ModifiedIntergreens returns every intergreen overlay entry written so
// far, for diagnostics/export.
func (o *Overlay) ModifiedIntergreens() []controller.ModifiedIntergreen {
	out := make([]controller.ModifiedIntergreen, 0, len(o.intergreens))
	for _, v := range o.intergreens {
		out = append(out, v)
	}
	return out
}

// ModifiedPhaseDelays returns every phase-delay overlay entry written so
// far, for diagnostics/export.
func (o *Overlay) ModifiedPhaseDelays() []controller.ModifiedPhaseDelay {
	out := make([]controller.ModifiedPhaseDelay, 0, len(o.phaseDelays))
	for _, v := range o.phaseDelays {
		out = append(out, v)
	}
	return out
}
