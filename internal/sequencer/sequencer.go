package sequencer

import (
	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/plan"
)

// Build dispatches to the correct flavor for stream, mirroring plan.py's
// Plan.get_stage_sequence: PV/PX mode first, then pedestrian controllers,
// then the default junction flavor (spec §4.5).
func Build(in Inputs, stream controller.Stream, isPedestrianController bool, items []plan.PlanSequenceItem) (Result, error) {
	switch {
	case stream.IsPVPXMode:
		return BuildPVPX(in, stream, items)
	case isPedestrianController:
		return BuildPedestrian(in, stream, items)
	default:
		return BuildJunction(in, stream, items)
	}
}
