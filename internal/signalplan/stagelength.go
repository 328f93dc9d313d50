package signalplan

import (
	"fmt"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/emuerr"
	"github.com/Mohi32/signal-emulator/internal/interstage"
	"github.com/Mohi32/signal-emulator/internal/observation"
	"github.com/Mohi32/signal-emulator/internal/overlay"
	"github.com/Mohi32/signal-emulator/internal/sequencer"
)

// ComputeStages turns a Sequencer result into a cyclic list of Stage
// records with total/interstage/green lengths, grounded on
// signal_plan.py's SignalPlans.add_from_stream_plan_dict stage-building
// loop (spec §4.7).
func ComputeStages(
	model *controller.Model,
	obs *observation.Store,
	ctrl controller.Key,
	cycle int,
	isPedestrianController bool,
	items []sequencer.Item,
) ([]Stage, error) {
	if len(items) == 0 {
		return nil, emuerr.ErrNoStagesForController
	}

	// The Resolver's "unmodified base values" reading (spec §4.7: "otherwise
	// compute from the Resolver using unmodified base values") is taken
	// through a throwaway Overlay that nothing ever writes to, so it always
	// falls through to the Controller Model's base intergreens and phase
	// delays regardless of what the real period Overlay has accumulated.
	unmodified := overlay.New(model, "")

	stages := make([]Stage, 0, len(items))
	for i, cur := range items {
		var total int
		if len(items) == 1 {
			total = cycle
		} else {
			next := items[(i+1)%len(items)]
			total = sequencer.Wrap(next.PulseTime-cur.PulseTime, cycle)
		}

		interstageLen, err := interstageLength(model, unmodified, obs, ctrl, cur, items[(i+1)%len(items)], isPedestrianController)
		if err != nil {
			return nil, err
		}
		if cur.EffectiveCallRate < 1 {
			interstageLen = roundFloat(float64(interstageLen) * cur.EffectiveCallRate)
		}

		green := total - interstageLen
		if green < 0 {
			return nil, fmt.Errorf("signalplan: stage %d: %w (total=%d interstage=%d)",
				cur.Stage.StageNum, emuerr.ErrInfeasibleSchedule, total, interstageLen)
		}

		stages = append(stages, Stage{
			StageNum:          cur.Stage.StageNum,
			PulsePoint:        cur.PulseTime,
			TotalLength:       total,
			InterstageLength:  interstageLen,
			GreenLength:       green,
			EffectiveCallRate: cur.EffectiveCallRate,
		})
	}
	return stages, nil
}

// interstageLength resolves one stage's interstage duration: an M37
// observation when one exists and the stage isn't a pedestrian sub-label
// ("PG"/"GX" per spec §4.7), else the Resolver's unmodified required
// interstage between cur and next.
func interstageLength(
	model *controller.Model,
	unmodified *overlay.Overlay,
	obs *observation.Store,
	ctrl controller.Key,
	cur, next sequencer.Item,
	isPedestrianController bool,
) (int, error) {
	stageID := cur.Stage.M37StageID(isPedestrianController)
	if obs != nil && stageID != "PG" && stageID != "GX" {
		if o, ok := obs.Lookup(ctrl, stageID); ok {
			return o.InterstageTime, nil
		}
	}
	return interstage.RequiredInterstage(model, unmodified, ctrl, cur.Stage, next.Stage), nil
}

func roundFloat(x float64) int {
	if x < 0 {
		return int(x - 0.5)
	}
	return int(x + 0.5)
}
