// Package sequencer implements the Stage Sequencer (spec §4.5): given a
// stream, its selected plan, observations, and a harmonized cycle time,
// derive a cyclic ordered list of (stage, pulse_time, effective_call_rate)
// tuples in one of three flavors (junction, pedestrian, PV/PX), grounded on
// plan.py's get_stage_sequence_junction / _pedestrian / _pv_px and their
// process_plan_sequence_item_* helpers.
package sequencer

// Wrap reduces t into [0, cycle) regardless of sign, per spec §9's single
// cycle-modular-arithmetic helper: "define one helper wrap(t, C) = ((t % C)
// + C) % C and use it uniformly".
func Wrap(t, cycle int) int {
	if cycle <= 0 {
		return 0
	}
	r := t % cycle
	if r < 0 {
		r += cycle
	}
	return r
}
