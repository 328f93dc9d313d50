// Package interstage implements the Interstage Resolver (spec §4.6): the
// minimum time a transition between two stages requires given the
// controller's intergreens and phase delays, and the reduce-to-observed
// algorithm that writes Modification Overlay entries when an M37-observed
// interstage is shorter than the controller data alone would require.
//
// Grounded on signal_plan.py's get_interstage_time / get_max_start_time
// (the resolver formula) and reduce_interstage (the overlay-writing
// algorithm), both called from SignalPlanStream.emulate.
package interstage

import (
	"fmt"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/emuerr"
	"github.com/Mohi32/signal-emulator/internal/overlay"
)

// RequiredInterstage computes the minimum interstage time between end and
// start, mirroring get_interstage_time:
//
//	required = max over start_phases sp:
//	             max over end_phases ep:
//	               max(delay(ep) + intergreen(ep, sp), delay(sp))
//
// where delay(p) is p's phase delay at this (end, start) transition (0 if
// untracked) and intergreen(ep, sp) is the clearance time from ep to sp.
func RequiredInterstage(m *controller.Model, ov *overlay.Overlay, ctrl controller.Key, end, start controller.Stage) int {
	endPhases := m.EndPhases(end, start)
	startPhases := m.StartPhases(end, start)

	required := 0
	for _, sp := range startPhases {
		startDelay := ov.PhaseDelayTime(ctrl, end.StageNum, start.StageNum, sp)
		maxForStart := 0
		for _, ep := range endPhases {
			endDelay := ov.PhaseDelayTime(ctrl, end.StageNum, start.StageNum, ep)
			ig, _ := ov.IntergreenTime(ctrl, ep, sp)
			v := endDelay + ig
			if startDelay > v {
				v = startDelay
			}
			if v > maxForStart {
				maxForStart = v
			}
		}
		if maxForStart > required {
			required = maxForStart
		}
	}
	return required
}

// Reduce writes Modification Overlay entries so that the (end, start)
// transition's required interstage time becomes exactly target, mirroring
// signal_plan.py's reduce_interstage: every end-phase delay, intergreen,
// and start-phase delay that exceeds target is clamped down to it (the
// intergreen clamp accounts for whatever the end-phase delay was just
// reduced to, matching the original's sequential writes-then-reread).
//
// Reduce only ever lowers values (the overlay itself refuses to raise one,
// spec §4.2), so target must not exceed the current RequiredInterstage; if
// after writing every clamp the recomputed required interstage still
// doesn't equal target, Reduce returns emuerr.ErrInterstageReductionImpossible
// (spec §4.6: "if no combination of clamps reaches the observed value
// exactly, the reduction fails fatally for this stream").
func Reduce(m *controller.Model, ov *overlay.Overlay, ctrl controller.Key, end, start controller.Stage, target int) error {
	endPhases := m.EndPhases(end, start)
	startPhases := m.StartPhases(end, start)

	for _, sp := range startPhases {
		for _, ep := range endPhases {
			endDelay := ov.PhaseDelayTime(ctrl, end.StageNum, start.StageNum, ep)
			if endDelay > target {
				if err := ov.SetPhaseDelay(ctrl, end.StageNum, start.StageNum, ep, target); err != nil {
					return fmt.Errorf("interstage: %w: %v", emuerr.ErrInterstageReductionImpossible, err)
				}
				endDelay = target
			}

			ig, _ := ov.IntergreenTime(ctrl, ep, sp)
			if endDelay+ig > target {
				newIG := target - endDelay
				if newIG < 0 {
					newIG = 0
				}
				if err := ov.SetIntergreen(ctrl, ep, sp, newIG); err != nil {
					return fmt.Errorf("interstage: %w: %v", emuerr.ErrInterstageReductionImpossible, err)
				}
			}

			startDelay := ov.PhaseDelayTime(ctrl, end.StageNum, start.StageNum, sp)
			if startDelay > target {
				if err := ov.SetPhaseDelay(ctrl, end.StageNum, start.StageNum, sp, target); err != nil {
					return fmt.Errorf("interstage: %w: %v", emuerr.ErrInterstageReductionImpossible, err)
				}
			}
		}
	}

	if got := RequiredInterstage(m, ov, ctrl, end, start); got != target {
		return fmt.Errorf("interstage: %w: stage %d->%d reduced to %d, want %d",
			emuerr.ErrInterstageReductionImpossible, end.StageNum, start.StageNum, got, target)
	}
	return nil
}
