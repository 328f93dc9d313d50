package sequencer

import (
	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/emuerr"
	"github.com/Mohi32/signal-emulator/internal/observation"
	"github.com/Mohi32/signal-emulator/internal/overlay"
	"github.com/Mohi32/signal-emulator/internal/plan"
)

// Item is one stage-sequence entry: the stage active from this pulse point
// until the next one, and the call rate that scales its length when it is
// a pedestrian sub-stage with no M37 observation (the configured per-period
// default rate applies; 1 otherwise), mirroring plan.py's StageSequenceItem.
type Item struct {
	Stage             controller.Stage
	PulseTime         int
	EffectiveCallRate float64
}

// Config carries the two values spec §9 marks as Open Questions the
// source leaves ambiguous: both are kept as configuration rather than
// hardcoded constants.
type Config struct {
	// LegacyNoBitsPulseOffset is added to a transition's pulse_time when the
	// commanding plan item has neither F-bits nor P-bits. The source treats
	// this as a hardcoded "+2"; here it is configurable per spec §9.
	LegacyNoBitsPulseOffset int

	// DefaultPedCallRate is the per-period fallback effective call rate used
	// when no M37 observation exists for a pedestrian or PV/PX sub-stage.
	DefaultPedCallRate map[string]float64
}

// DefaultConfig returns the source's observed defaults: +2 legacy offset,
// 0.5 default pedestrian call rate for AM/OP/PM.
func DefaultConfig() Config {
	return Config{
		LegacyNoBitsPulseOffset: 2,
		DefaultPedCallRate: map[string]float64{
			"AM": 0.5,
			"OP": 0.5,
			"PM": 0.5,
		},
	}
}

func (c Config) callRateFor(period string) float64 {
	if r, ok := c.DefaultPedCallRate[period]; ok {
		return r
	}
	return 0.5
}

// Inputs bundles everything a Build call needs: the read-only Controller
// Model, the period's Overlay, the M37 Observation Store (nil when
// observations are absent — every flavor falls back to plan-declared
// behavior in that case), and the harmonized cycle time.
type Inputs struct {
	Model        *controller.Model
	Overlay      *overlay.Overlay
	Observations *observation.Store
	CycleTime    int
	Period       string
	Config       Config
}

// Result is a Build call's output: the emitted stage sequence plus any
// recoverable diagnostics raised along the way (repeated stages pruned,
// prohibited moves used).
type Result struct {
	Items       []Item
	Diagnostics []emuerr.Diagnostic
}

func (i *Inputs) useObservations() bool {
	return i.Observations != nil
}

func (i *Inputs) observedTotalTime(ctrl controller.Key, stage controller.Stage, isPedestrianController bool) (int, bool) {
	if !i.useObservations() {
		return 0, false
	}
	obs, ok := i.Observations.Lookup(ctrl, stage.M37StageID(isPedestrianController))
	if !ok {
		return 0, false
	}
	return obs.TotalTime, true
}

// commandsStage reports whether stage (identified by stage number)
// is among the numbers the plan item commands.
func commandsStage(item plan.PlanSequenceItem, stageNum int) bool {
	for _, n := range item.StageNumbers() {
		if n == stageNum {
			return true
		}
	}
	return false
}
