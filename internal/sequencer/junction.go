package sequencer

import (
	"strconv"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/emuerr"
	"github.com/Mohi32/signal-emulator/internal/plan"
)

// BuildJunction derives the default-flavor stage sequence for a stream,
// grounded on plan.py's get_stage_sequence_junction /
// process_plan_sequence_item / get_initial_stage_id.
func BuildJunction(in Inputs, stream controller.Stream, items []plan.PlanSequenceItem) (Result, error) {
	streamKey := controller.StreamKey{Controller: stream.Controller, StreamNum: stream.StreamNum}
	stagesInStream := in.Model.StagesInStream(stream.Controller, stream.StreamNum)
	if len(stagesInStream) == 0 {
		return Result{}, emuerr.ErrNoStagesForController
	}
	stagesByNum := make(map[int]controller.Stage, len(stagesInStream))
	for _, s := range stagesInStream {
		stagesByNum[s.StageNum] = s
	}

	observedNonZero := func(s controller.Stage) bool {
		total, ok := in.observedTotalTime(stream.Controller, s, false)
		return ok && total > 0
	}

	initial, ok := initialStage(stagesByNum, items, in.useObservations(), observedNonZero)
	if !ok {
		return Result{}, emuerr.ErrNoStagesForController
	}

	var seq []Item
	var diags []emuerr.Diagnostic
	// stagesUsed tracks stages already *emitted* into seq, not the initial
	// pointer itself: the initial stage only re-enters the output (as the
	// sequence's closing stage) the first time the walk transitions back to
	// it, matching plan.py's get_stage_sequence_junction.
	stagesUsed := map[int]bool{}
	active := initial

	for _, item := range items {
		if commandsStage(item, active.StreamStageNum) {
			continue // no transition commanded
		}

		candidates := plan.CandidatesCyclicAfter(stagesInStream, active.StageNum)
		var next controller.Stage
		found := false
		for _, cand := range candidates {
			if !commandsStage(item, cand.StageNum) {
				continue
			}
			if in.useObservations() && !observedNonZero(cand) {
				continue
			}
			next = cand
			found = true
			break
		}
		if !found || next.StageNum == active.StageNum {
			continue // no usable transition for this item
		}

		pulseTime := item.PulseTime
		if in.useObservations() {
			prevPulse := 0
			if len(seq) > 0 {
				prevPulse = seq[len(seq)-1].PulseTime
			}
			prevTotal, _ := in.observedTotalTime(stream.Controller, active, false)
			pulseTime = prevPulse + prevTotal
		}
		if len(item.FBits) == 0 && len(item.PBits) == 0 {
			pulseTime += in.Config.LegacyNoBitsPulseOffset
		}
		pulseTime = Wrap(pulseTime, in.CycleTime)

		if stagesUsed[next.StageNum] {
			diags = append(diags, emuerr.NewDiagnostic("sequencer", emuerr.ErrRepeatedStageInSequence,
				streamKey.Controller.String(), strconv.Itoa(next.StageNum)))
			active = next
			continue
		}

		if in.Model.IsProhibited(stream.Controller, active.StageNum, next.StageNum) {
			diags = append(diags, emuerr.NewDiagnostic("sequencer", emuerr.ErrProhibitedStageTransition,
				streamKey.Controller.String(), strconv.Itoa(active.StageNum), strconv.Itoa(next.StageNum)))
		}

		seq = append(seq, Item{Stage: next, PulseTime: pulseTime, EffectiveCallRate: 1})
		stagesUsed[next.StageNum] = true
		active = next
	}

	if len(seq) == 0 {
		return Result{Items: []Item{{Stage: initial, PulseTime: 0, EffectiveCallRate: 1}}, Diagnostics: diags}, nil
	}

	if seq[0].Stage.StageNum == seq[len(seq)-1].Stage.StageNum {
		seq = seq[:len(seq)-1]
	}
	if len(seq) == 0 {
		seq = []Item{{Stage: initial, PulseTime: 0, EffectiveCallRate: 1}}
	}

	diags = append(diags, validateSequence(in.Model, stream.Controller, seq)...)

	return Result{Items: seq, Diagnostics: diags}, nil
}

// initialStage walks every plan item in order; for each item, the first
// stage it commands that exists in the stream and (when observations are
// in use) has a non-zero observed total time becomes that item's
// candidate. The candidate from the *last* item that produced one wins,
// mirroring plan.py's get_initial_stage_id / process_plan_sequence_item_initial.
func initialStage(stagesByNum map[int]controller.Stage, items []plan.PlanSequenceItem, useObs bool, observedNonZero func(controller.Stage) bool) (controller.Stage, bool) {
	var result controller.Stage
	found := false
	for _, item := range items {
		for _, num := range item.StageNumbers() {
			st, ok := stagesByNum[num]
			if !ok {
				continue
			}
			if !useObs || observedNonZero(st) {
				result = st
				found = true
				break
			}
		}
	}
	return result, found
}

// validateSequence checks the finished sequence for consecutive duplicate
// stages and prohibited moves, mirroring
// Plan.validate_stage_sequence.
func validateSequence(model *controller.Model, ctrl controller.Key, seq []Item) []emuerr.Diagnostic {
	var diags []emuerr.Diagnostic
	for i := 1; i < len(seq); i++ {
		prev, cur := seq[i-1].Stage, seq[i].Stage
		if prev.StageNum == cur.StageNum {
			diags = append(diags, emuerr.NewDiagnostic("sequencer", emuerr.ErrRepeatedStageInSequence,
				ctrl.String(), strconv.Itoa(cur.StageNum)))
		}
		if model.IsProhibited(ctrl, prev.StageNum, cur.StageNum) {
			diags = append(diags, emuerr.NewDiagnostic("sequencer", emuerr.ErrProhibitedStageTransition,
				ctrl.String(), strconv.Itoa(prev.StageNum), strconv.Itoa(cur.StageNum)))
		}
	}
	return diags
}
