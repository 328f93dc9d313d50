package sequencer

import (
	"math"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/emuerr"
	"github.com/Mohi32/signal-emulator/internal/plan"
)

// BuildPedestrian derives the two-stage pedestrian-flavor sequence,
// grounded on plan.py's get_stage_sequence_pedestrian /
// process_plan_sequence_item_pedestrian: exactly two items, found by their
// F-bits ({F2} for the pedestrian stage, {F1} for the road-green stage).
func BuildPedestrian(in Inputs, stream controller.Stream, items []plan.PlanSequenceItem) (Result, error) {
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

	callRate := 1.0
	observedNotRoadGreen, obsOK := in.observedTotalTime(stream.Controller, pedStage, true)
	if !obsOK {
		callRate = in.Config.callRateFor(in.Period)
	}

	firstPulse := Wrap(item1.PulseTime, in.CycleTime)
	var secondPulse int
	if obsOK {
		secondPulse = firstPulse + roundInt(float64(observedNotRoadGreen)*callRate)
	} else {
		secondPulse = item2.PulseTime
	}
	secondPulse = Wrap(secondPulse, in.CycleTime)

	seq := []Item{
		{Stage: roadStage, PulseTime: firstPulse, EffectiveCallRate: 1},
		{Stage: pedStage, PulseTime: secondPulse, EffectiveCallRate: callRate},
	}
	return Result{Items: seq}, nil
}

// findItemWithFBits returns the first item whose FBits is exactly [bit].
func findItemWithFBits(items []plan.PlanSequenceItem, bit string) (plan.PlanSequenceItem, bool) {
	for _, item := range items {
		if len(item.FBits) == 1 && item.FBits[0] == bit {
			return item, true
		}
	}
	return plan.PlanSequenceItem{}, false
}

func roundInt(x float64) int {
	return int(math.Round(x))
}
