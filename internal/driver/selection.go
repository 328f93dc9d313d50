package driver

import (
	"strings"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/observation"
	"github.com/Mohi32/signal-emulator/internal/plan"
)

// selectPlan picks one plan for a stream per spec §4.4 step 1: (i) the
// PJA-timetabled plan if present; else (ii) the plan whose name equals
// "WAT <period>" or "<period>", then any plan whose name contains WAT and
// the period's short or long name, then any plan containing the period
// name; else (iii) the first non-MINS plan. Returns false if none apply,
// mirroring emulator.py's get_best_matching_plan.
func selectPlan(store *plan.Store, streamKey controller.StreamKey, period, periodLongName string, timetable *plan.Timetable) (plan.Plan, bool) {
	if timetable != nil {
		if num, ok := timetable.PlanNumber(streamKey, period); ok {
			for _, p := range store.PlansForStream(streamKey) {
				if p.Number == num {
					return p, true
				}
			}
		}
	}

	plans := store.PlansForStream(streamKey)
	if len(plans) == 0 {
		return plan.Plan{}, false
	}

	upperPeriod := strings.ToUpper(period)
	upperLong := strings.ToUpper(periodLongName)
	watExact := "WAT " + upperPeriod

	for _, p := range plans {
		name := strings.ToUpper(p.Name)
		if name == watExact || name == upperPeriod {
			return p, true
		}
	}
	for _, p := range plans {
		name := strings.ToUpper(p.Name)
		if strings.Contains(name, "WAT") && (strings.Contains(name, upperPeriod) || (upperLong != "" && strings.Contains(name, upperLong))) {
			return p, true
		}
	}
	for _, p := range plans {
		name := strings.ToUpper(p.Name)
		if strings.Contains(name, upperPeriod) {
			return p, true
		}
	}

	for _, p := range plans {
		if !p.IsMinsNamed() {
			return p, true
		}
	}
	return plan.Plan{}, false
}

// harmonizedCycleTime resolves the single cycle time every stream of a
// controller shares (spec §4.4 step 3): take the first stream's plan,
// probe observations by its site id for any stage number 1..maxStage; the
// first hit's cycle_time wins, else fall back to the plan's declared
// cycle_time.
func harmonizedCycleTime(ctrl controller.Key, firstPlan plan.Plan, obs *observation.Store, maxStage int) int {
	if obs != nil {
		if cycle, ok := obs.CycleTime(ctrl, maxStage); ok {
			return cycle
		}
	}
	return firstPlan.CycleTime
}
