package sequencer

import (
	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/emuerr"
	"github.com/Mohi32/signal-emulator/internal/interstage"
	"github.com/Mohi32/signal-emulator/internal/plan"
)

// BuildPVPX derives the combined pedestrian-vehicle flavor sequence used
// when a stream is flagged pv_px_mode, grounded on plan.py's
// get_stage_sequence_pv_px / process_plan_sequence_item_pvpx: like the
// pedestrian flavor, but the observed pedestrian sub-stage length is
// discounted by the vehicle-to-pedestrian interstage's share of (green-man
// minimum time + both interstages), and the road/pedestrian pulses are shifted by the
// pedestrian-to-traffic trailing intergreen.
func BuildPVPX(in Inputs, stream controller.Stream, items []plan.PlanSequenceItem) (Result, error) {
	stages := in.Model.StagesInStream(stream.Controller, stream.StreamNum)
	if len(stages) < 2 {
		return Result{}, emuerr.ErrNoStagesForController
	}
	roadStage, pedStage := stages[0], stages[1]

	item1, ok1 := findItemWithFBits(items, "F1")
	item2, ok2 := findItemWithFBits(items, "F2")
	if !ok1 || !ok2 {
		return Result{}, emuerr.ErrMissingPlanForStream
	}

	igTraffic := interstage.RequiredInterstage(in.Model, in.Overlay, stream.Controller, roadStage, pedStage)
	igPed := interstage.RequiredInterstage(in.Model, in.Overlay, stream.Controller, pedStage, roadStage)
	pedGreenMan := pedestrianPhaseMinTime(in.Model, stream.Controller, pedStage)

	callRate := 1.0
	observedNotRoadGreen, obsOK := in.observedTotalTime(stream.Controller, pedStage, true)
	if !obsOK {
		callRate = in.Config.callRateFor(in.Period)
	}

	firstPulse := Wrap(item1.PulseTime-igPed, in.CycleTime)

	var secondPulse int
	if obsOK {
		denom := pedGreenMan + igPed + igTraffic
		adjustmentSeconds := 0
		if denom > 0 {
			adjustmentSeconds = int(float64(igTraffic) / float64(denom) * float64(observedNotRoadGreen))
		}
		stageLength := roundInt(float64(observedNotRoadGreen-adjustmentSeconds) * callRate)
		secondPulse = firstPulse + stageLength
	} else {
		secondPulse = item2.PulseTime + igPed
	}
	secondPulse = Wrap(secondPulse, in.CycleTime)

	seq := []Item{
		{Stage: roadStage, PulseTime: firstPulse, EffectiveCallRate: 1},
		{Stage: pedStage, PulseTime: secondPulse, EffectiveCallRate: callRate},
	}
	return Result{Items: seq}, nil
}

// pedestrianPhaseMinTime returns the MinTime of stage's pedestrian phase,
// or 0 if it has none.
func pedestrianPhaseMinTime(model *controller.Model, ctrl controller.Key, stage controller.Stage) int {
	for _, ref := range stage.Phases {
		p, ok := model.Phase(ctrl, ref)
		if ok && p.Kind == controller.Pedestrian {
			return p.MinTime
		}
	}
	return 0
}
