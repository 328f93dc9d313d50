// Package projector implements the Phase Projector (spec §4.8): walks a
// stream's stage schedule one extra step and emits per-phase (start, end)
// PhaseTimings, honoring indicative-arrow and filter-phase coupling.
//
// Grounded on signal_plan.py's SignalPlanStream.emulate, including its
// merge-or-append bookkeeping for phases whose end and start events are
// observed on opposite sides of the cyclic walk.
package projector

import (
	"fmt"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/emuerr"
	"github.com/Mohi32/signal-emulator/internal/interstage"
	"github.com/Mohi32/signal-emulator/internal/overlay"
	"github.com/Mohi32/signal-emulator/internal/sequencer"
	"github.com/Mohi32/signal-emulator/internal/signalplan"
)

const unset = -1

type working struct {
	phase controller.PhaseRef
	start int
	end   int
	index int
}

// Project computes every PhaseTiming for one stream's cycle, given the
// stage schedule signalplan.ComputeStages already produced (spec §4.7).
func Project(model *controller.Model, ov *overlay.Overlay, ctrl controller.Key, period string, cycle int, stages []signalplan.Stage) ([]signalplan.PhaseTiming, error) {
	if len(stages) == 0 {
		return nil, emuerr.ErrNoStagesForController
	}
	if len(stages) == 1 {
		return projectDegenerate(model, ctrl, period, cycle, stages[0])
	}

	var timings []working
	open := make(map[controller.PhaseRef]int) // phase -> index of its incomplete working entry
	nextIndex := make(map[controller.PhaseRef]int)

	closeAt := func(phase controller.PhaseRef, t int) {
		if idx, ok := open[phase]; ok {
			timings[idx].end = t
			if timings[idx].start != unset {
				delete(open, phase)
			}
			return
		}
		idx := len(timings)
		timings = append(timings, working{phase: phase, start: unset, end: t, index: nextIndex[phase]})
		nextIndex[phase]++
		open[phase] = idx
	}

	openAt := func(phase controller.PhaseRef, t int) {
		if idx, ok := open[phase]; ok {
			timings[idx].start = t
			if timings[idx].end != unset {
				delete(open, phase)
			}
			return
		}
		idx := len(timings)
		timings = append(timings, working{phase: phase, start: t, end: unset, index: nextIndex[phase]})
		nextIndex[phase]++
		open[phase] = idx
	}

	extended := append(append([]signalplan.Stage(nil), stages...), stages[0])

	for i := 0; i < len(stages); i++ {
		curSpan, nextSpan := extended[i], extended[i+1]
		curStage, ok := model.Stage(ctrl, curSpan.StageNum)
		if !ok {
			return nil, fmt.Errorf("projector: %w: stage %d", emuerr.ErrNoStagesForController, curSpan.StageNum)
		}
		nextStage, ok := model.Stage(ctrl, nextSpan.StageNum)
		if !ok {
			return nil, fmt.Errorf("projector: %w: stage %d", emuerr.ErrNoStagesForController, nextSpan.StageNum)
		}

		required := interstage.RequiredInterstage(model, ov, ctrl, curStage, nextStage)
		if required > curSpan.InterstageLength {
			if err := interstage.Reduce(model, ov, ctrl, curStage, nextStage, curSpan.InterstageLength); err != nil {
				return nil, err
			}
		}
		if required > curSpan.TotalLength {
			return nil, fmt.Errorf("projector: stage %d->%d: %w (required=%d total=%d)",
				curStage.StageNum, nextStage.StageNum, emuerr.ErrInfeasibleSchedule, required, curSpan.TotalLength)
		}

		pulsePoint := nextSpan.PulsePoint
		endPhases := model.EndPhases(curStage, nextStage)
		startPhases := model.StartPhases(curStage, nextStage)

		for _, e := range endPhases {
			phase, ok := model.Phase(ctrl, e)
			if !ok {
				continue
			}
			switch phase.Term {
			case controller.AssociatedGainsRight:
				delta := maxStartDelta(model, ov, ctrl, curStage, nextStage, phase.AssociatedPhase)
				closeAt(e, sequencer.Wrap(pulsePoint+delta, cycle))
			case controller.EndOfStage:
				delay := ov.PhaseDelayTime(ctrl, curStage.StageNum, nextStage.StageNum, e)
				endTime := sequencer.Wrap(pulsePoint+delay, cycle)
				closeAt(e, endTime)
				if phase.HasIndicativeArrow {
					closeAt(phase.IndicativeArrowPhase, endTime)
				}
			default:
				// AssociatedLosesRight (indicative arrow) and Other/Dummy
				// phases never end a stage of their own accord; nothing to
				// emit here.
			}
		}

		for _, s := range startPhases {
			delta := maxStartDelta(model, ov, ctrl, curStage, nextStage, s)
			openAt(s, sequencer.Wrap(pulsePoint+delta, cycle))
		}
	}

	out := make([]signalplan.PhaseTiming, 0, len(timings))
	for _, w := range timings {
		start, end := w.start, w.end
		if start == unset {
			start = end
		}
		if end == unset {
			end = cycle
		}
		out = append(out, signalplan.PhaseTiming{
			Controller: ctrl,
			Phase:      w.phase,
			Period:     period,
			Index:      w.index,
			Start:      start,
			End:        end,
		})
	}
	return out, nil
}

func projectDegenerate(model *controller.Model, ctrl controller.Key, period string, cycle int, stage signalplan.Stage) ([]signalplan.PhaseTiming, error) {
	st, ok := model.Stage(ctrl, stage.StageNum)
	if !ok {
		return nil, fmt.Errorf("projector: %w: stage %d", emuerr.ErrNoStagesForController, stage.StageNum)
	}
	out := make([]signalplan.PhaseTiming, 0, len(st.Phases))
	for _, ref := range st.Phases {
		out = append(out, signalplan.PhaseTiming{Controller: ctrl, Phase: ref, Period: period, Index: 0, Start: 0, End: cycle})
	}
	return out, nil
}

// maxStartDelta reduces the Resolver's required-interstage formula to a
// single target phase, mirroring signal_plan.py's get_max_start_time:
// max over e in end_phases of max(delay(e) + intergreen(e, target), delay(target)).
func maxStartDelta(model *controller.Model, ov *overlay.Overlay, ctrl controller.Key, cur, next controller.Stage, target controller.PhaseRef) int {
	targetDelay := ov.PhaseDelayTime(ctrl, cur.StageNum, next.StageNum, target)
	maxV := 0
	for _, e := range model.EndPhases(cur, next) {
		endDelay := ov.PhaseDelayTime(ctrl, cur.StageNum, next.StageNum, e)
		ig, _ := ov.IntergreenTime(ctrl, e, target)
		v := endDelay + ig
		if targetDelay > v {
			v = targetDelay
		}
		if v > maxV {
			maxV = v
		}
	}
	return maxV
}
