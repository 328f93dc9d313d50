// Package plan implements the Plan Model (spec §4.3): timing-sheet plans,
// their stage-sequence command items ("F"/"D"/"P" bitfields), and the PJA
// timetable that maps (stream, period) to a specific plan number.
//
// Plan selection (which plan a stream actually runs in a given period) is
// the Signal-Plan Driver's job (internal/driver); this package only stores
// and queries plan data, mirroring plan.py's Plan/PlanSequenceItem
// dataclasses.
package plan

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Mohi32/signal-emulator/internal/controller"
)

// Plan is one timing-sheet plan for a stream, grounded on plan.py's Plan
// dataclass.
type Plan struct {
	Controller controller.Key
	Stream     int
	Number     int
	Name       string
	CycleTime  int
	Timeout    int
}

// IsMinsNamed reports whether the plan's name marks it as a minimum-time
// filler plan (by convention, names containing "MINS"), which the Driver's
// plan-selection fallback step skips in favor of any other plan, mirroring
// emulator.py's "{name}" != "MINS" check in get_best_matching_plan.
func (p Plan) IsMinsNamed() bool {
	return strings.Contains(strings.ToUpper(p.Name), "MINS")
}

// PlanSequenceItem is one stage-change command within a Plan, grounded on
// plan.py's PlanSequenceItem dataclass.
type PlanSequenceItem struct {
	Controller controller.Key
	Stream     int
	PlanNumber int
	Index      int
	PulseTime  int
	FBits      []string
	DBits      []string
	PBits      []string
	NTO        bool
	ScootStage int
}

var commandSplitPattern = regexp.MustCompile(`[.,]`)

// ParseCommandString splits a raw command field (e.g. "F1.F2" or "F1F2")
// into individual two-character commands, mirroring
// PlanSequenceItem.get_commands_from_str: tokens are first split on "." or
// ",", then any token longer than two characters is itself chopped into
// two-character chunks, each of which must begin with the letter identifying
// its command family (F = stage-on, D = stage-off/demand, P = pedestrian).
func ParseCommandString(raw string, families ...byte) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	allowed := make(map[byte]bool, len(families))
	for _, f := range families {
		allowed[f] = true
	}
	var out []string
	for _, tok := range commandSplitPattern.Split(raw, -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if len(tok) <= 2 {
			if len(allowed) > 0 && !allowed[tok[0]] {
				return nil, fmt.Errorf("plan: command %q has unexpected family %q", tok, tok[0])
			}
			out = append(out, tok)
			continue
		}
		for i := 0; i < len(tok); i += 2 {
			end := i + 2
			if end > len(tok) {
				return nil, fmt.Errorf("plan: command string %q has an odd trailing fragment", tok)
			}
			chunk := tok[i:end]
			if len(allowed) > 0 && !allowed[chunk[0]] {
				return nil, fmt.Errorf("plan: command %q has unexpected family %q", chunk, chunk[0])
			}
			out = append(out, chunk)
		}
	}
	return out, nil
}

// pvPxStageNumbers maps the PV/PX pedestrian bit codes to stage numbers,
// grounded on enums.py's PedBitsToStageNumber.
var pvPxStageNumbers = map[string]int{"PV": 1, "PX": 2}

// StageNumbers returns every stage number this item names, mirroring
// PlanSequenceItem.stage_numbers: every F-bit's numeric suffix, every
// P-bit's mapped stage number, and — when the item carries neither F-bits
// nor P-bits — the legacy default stage 2.
func (item PlanSequenceItem) StageNumbers() []int {
	var out []int
	for _, f := range item.FBits {
		digits := strings.TrimLeft(strings.TrimPrefix(f, "F"), "0")
		if digits == "" {
			digits = "0"
		}
		if n, err := strconv.Atoi(digits); err == nil {
			out = append(out, n)
		}
	}
	for _, p := range item.PBits {
		if n, ok := pvPxStageNumbers[strings.ToUpper(p)]; ok {
			out = append(out, n)
		}
	}
	if len(item.FBits) == 0 && len(item.PBits) == 0 {
		out = append(out, 2)
	}
	return out
}

// CandidatesCyclicAfter orders stages so the walk starting just after
// activeStageNum wraps around the stream: stages numbered above
// activeStageNum come first, then stages numbered at or below it,
// mirroring PlanSequenceItem.stages_existing_in_stream's "high + low"
// ordering used to pick the next candidate stage in sequence.
func CandidatesCyclicAfter(stages []controller.Stage, activeStageNum int) []controller.Stage {
	var high, low []controller.Stage
	for _, s := range stages {
		if s.StageNum > activeStageNum {
			high = append(high, s)
		} else {
			low = append(low, s)
		}
	}
	sort.Slice(high, func(i, j int) bool { return high[i].StageNum < high[j].StageNum })
	sort.Slice(low, func(i, j int) bool { return low[i].StageNum < low[j].StageNum })
	return append(high, low...)
}

// Key identifies a Plan by (controller, stream, number).
type Key struct {
	Controller controller.Key
	Stream     int
	Number     int
}

// Store holds every Plan and PlanSequenceItem loaded for a run, keyed for
// fast per-stream/per-plan lookup. It is read-only once built and is safe
// to share across the parallel (controller, period) goroutines started by
// the Driver (spec §5), since no mutation happens after load.
type Store struct {
	plans    map[Key]Plan
	byStream map[controller.StreamKey][]Key
	items    map[Key][]PlanSequenceItem
}

// NewStore builds an empty Store.
func NewStore() *Store {
	return &Store{
		plans:    make(map[Key]Plan),
		byStream: make(map[controller.StreamKey][]Key),
		items:    make(map[Key][]PlanSequenceItem),
	}
}

// AddPlan registers a Plan.
func (s *Store) AddPlan(p Plan) {
	k := Key{Controller: p.Controller, Stream: p.Stream, Number: p.Number}
	if _, exists := s.plans[k]; !exists {
		sk := controller.StreamKey{Controller: p.Controller, StreamNum: p.Stream}
		s.byStream[sk] = append(s.byStream[sk], k)
	}
	s.plans[k] = p
}

// AddSequenceItem registers a PlanSequenceItem under its plan.
func (s *Store) AddSequenceItem(item PlanSequenceItem) {
	k := Key{Controller: item.Controller, Stream: item.Stream, Number: item.PlanNumber}
	s.items[k] = append(s.items[k], item)
}

// PlansForStream returns every plan loaded for a stream, in load order.
func (s *Store) PlansForStream(streamKey controller.StreamKey) []Plan {
	keys := s.byStream[streamKey]
	out := make([]Plan, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.plans[k])
	}
	return out
}

// SequenceItems returns a plan's items ordered by Index.
func (s *Store) SequenceItems(k Key) []PlanSequenceItem {
	items := append([]PlanSequenceItem(nil), s.items[k]...)
	sort.Slice(items, func(i, j int) bool { return items[i].Index < items[j].Index })
	return items
}

// Timetable is the PJA (per-stream, per-period plan override) lookup,
// grounded on plan_timetable.py / emulator.py's PJA-timetabled-plan step.
type Timetable struct {
	entries map[timetableKey]int
}

type timetableKey struct {
	Stream controller.StreamKey
	Period string
}

// NewTimetable builds an empty Timetable.
func NewTimetable() *Timetable {
	return &Timetable{entries: make(map[timetableKey]int)}
}

// Set records that streamKey runs plan number planNumber during period.
func (t *Timetable) Set(streamKey controller.StreamKey, period string, planNumber int) {
	t.entries[timetableKey{Stream: streamKey, Period: period}] = planNumber
}

// PlanNumber returns the PJA-timetabled plan number for (stream, period),
// if one was configured.
func (t *Timetable) PlanNumber(streamKey controller.StreamKey, period string) (int, bool) {
	n, ok := t.entries[timetableKey{Stream: streamKey, Period: period}]
	return n, ok
}
