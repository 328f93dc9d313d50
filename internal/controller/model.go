package controller

import (
	"fmt"
	"sort"
)

// Info carries the controller-level metadata fields from controller.py's
// Controller (excluding its derived collections, which live in Model).
type Info struct {
	Key              Key
	ControllerType   string
	XCoord, YCoord   float64
	Address          string
	SpecIssueNo      string
	IsPedestrian     bool
}

// Model is the arena holding every Controller-Model entity for a single
// controller, keyed by the stable composite keys in keys.go rather than by
// pointer, per spec §9's guidance to replace object-graph cycles with
// arena allocation over stable identifiers.
type Model struct {
	Info Info

	phases      map[PhaseKey]Phase
	stages      map[StageKey]Stage
	streams     map[StreamKey]Stream
	intergreens map[IntergreenKey]Intergreen
	phaseDelays map[PhaseDelayKey]PhaseDelay
	prohibited  map[StageMoveKey]ProhibitedStageMove
}

// NewModel constructs an empty Model for the given controller metadata.
func NewModel(info Info) *Model {
	return &Model{
		Info:        info,
		phases:      make(map[PhaseKey]Phase),
		stages:      make(map[StageKey]Stage),
		streams:     make(map[StreamKey]Stream),
		intergreens: make(map[IntergreenKey]Intergreen),
		phaseDelays: make(map[PhaseDelayKey]PhaseDelay),
		prohibited:  make(map[StageMoveKey]ProhibitedStageMove),
	}
}

// AddPhase registers a Phase.
func (m *Model) AddPhase(p Phase) {
	m.phases[PhaseKey{Controller: p.Controller, Ref: p.Ref}] = p
}

// AddStage registers a Stage.
func (m *Model) AddStage(s Stage) {
	m.stages[StageKey{Controller: s.Controller, StageNum: s.StageNum}] = s
}

// AddStream registers a Stream.
func (m *Model) AddStream(s Stream) {
	m.streams[StreamKey{Controller: s.Controller, StreamNum: s.StreamNum}] = s
}

// AddIntergreen registers an Intergreen.
func (m *Model) AddIntergreen(ig Intergreen) {
	m.intergreens[IntergreenKey{Controller: ig.Controller, EndPhase: ig.EndPhase, StartPhase: ig.StartPhase}] = ig
}

// AddPhaseDelay registers a PhaseDelay, after deriving its Kind from
// whether Phase belongs to the end or start stage's phase set (mirroring
// controller.py PhaseDelay.phase_delay_type). Returns
// emuerr.ErrInvalidPhaseDelay-eligible false if Phase is in neither stage;
// the caller decides whether to drop it (controller.py
// PhaseDelays.remove_invalid()).
func (m *Model) AddPhaseDelay(pd PhaseDelay) bool {
	end, endOK := m.Stage(pd.Controller, pd.EndStage)
	start, startOK := m.Stage(pd.Controller, pd.StartStage)
	inEnd := endOK && containsRef(end.Phases, pd.Phase)
	inStart := startOK && containsRef(start.Phases, pd.Phase)
	switch {
	case inEnd:
		pd.Kind = Losing
	case inStart:
		pd.Kind = Gaining
	default:
		return false
	}
	m.phaseDelays[PhaseDelayKey{Controller: pd.Controller, EndStage: pd.EndStage, StartStage: pd.StartStage, Phase: pd.Phase}] = pd
	return true
}

// AddProhibitedMove registers a ProhibitedStageMove.
func (m *Model) AddProhibitedMove(pm ProhibitedStageMove) {
	m.prohibited[StageMoveKey{Controller: pm.Controller, EndStage: pm.EndStage, StartStage: pm.StartStage}] = pm
}

func containsRef(refs []PhaseRef, ref PhaseRef) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}

// Phase looks up a phase by reference.
func (m *Model) Phase(ctrl Key, ref PhaseRef) (Phase, bool) {
	p, ok := m.phases[PhaseKey{Controller: ctrl, Ref: ref}]
	return p, ok
}

// Stage looks up a stage by number.
func (m *Model) Stage(ctrl Key, num int) (Stage, bool) {
	s, ok := m.stages[StageKey{Controller: ctrl, StageNum: num}]
	return s, ok
}

// Stream looks up a stream by number.
func (m *Model) Stream(ctrl Key, num int) (Stream, bool) {
	s, ok := m.streams[StreamKey{Controller: ctrl, StreamNum: num}]
	return s, ok
}

// Intergreen looks up the base (unmodified) intergreen for an (end, start)
// phase pair.
func (m *Model) Intergreen(ctrl Key, end, start PhaseRef) (Intergreen, bool) {
	ig, ok := m.intergreens[IntergreenKey{Controller: ctrl, EndPhase: end, StartPhase: start}]
	return ig, ok
}

// PhaseDelay looks up the base (unmodified) phase delay for a transition
// and phase.
func (m *Model) PhaseDelay(ctrl Key, endStage, startStage int, phase PhaseRef) (PhaseDelay, bool) {
	pd, ok := m.phaseDelays[PhaseDelayKey{Controller: ctrl, EndStage: endStage, StartStage: startStage, Phase: phase}]
	return pd, ok
}

// IsProhibited reports whether the controller forbids moving directly from
// endStage to startStage, mirroring
// ProhibitedStageMoves.is_prohibited_by_stage_keys.
func (m *Model) IsProhibited(ctrl Key, endStage, startStage int) bool {
	_, ok := m.prohibited[StageMoveKey{Controller: ctrl, EndStage: endStage, StartStage: startStage}]
	return ok
}

// StagesInStream returns every Stage belonging to the given stream, ordered
// by StreamStageNum, mirroring Stages collection helpers used throughout
// plan.py's stage-sequencing.
func (m *Model) StagesInStream(ctrl Key, streamNum int) []Stage {
	var out []Stage
	for _, s := range m.stages {
		if s.Controller == ctrl && s.StreamNum == streamNum {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StreamStageNum < out[j].StreamStageNum })
	return out
}

// EndPhases returns the phases present in end but not in start: the phases
// that give up the right of way on an end -> start transition, mirroring
// Stages.get_end_phases.
func (m *Model) EndPhases(end, start Stage) []PhaseRef {
	startSet := make(map[PhaseRef]struct{}, len(start.Phases))
	for _, r := range start.Phases {
		startSet[r] = struct{}{}
	}
	var out []PhaseRef
	for _, r := range end.Phases {
		if _, in := startSet[r]; !in {
			out = append(out, r)
		}
	}
	return out
}

// StartPhases returns the phases present in start but not in end: the
// phases that gain the right of way on an end -> start transition,
// mirroring Stages.get_start_phases.
func (m *Model) StartPhases(end, start Stage) []PhaseRef {
	endSet := make(map[PhaseRef]struct{}, len(end.Phases))
	for _, r := range end.Phases {
		endSet[r] = struct{}{}
	}
	var out []PhaseRef
	for _, r := range start.Phases {
		if _, in := endSet[r]; !in {
			out = append(out, r)
		}
	}
	return out
}

// SetIndicativeArrowPhases computes the indicative-arrow back-pointer for
// every Filter phase whose termination is AssociatedLosesRight: the
// associated phase's IndicativeArrowPhase is set to point back at it,
// mirroring controller.py Phases.set_indicative_arrow_phases(). Must be
// called once after all phases are loaded and before the Phase Projector
// runs.
func (m *Model) SetIndicativeArrowPhases() error {
	for key, p := range m.phases {
		if p.Term != AssociatedLosesRight {
			continue
		}
		assoc, ok := m.phases[PhaseKey{Controller: p.Controller, Ref: p.AssociatedPhase}]
		if !ok {
			return fmt.Errorf("controller: indicative arrow phase %s references unknown associated phase %s", p.Ref, p.AssociatedPhase)
		}
		assoc.IndicativeArrowPhase = p.Ref
		assoc.HasIndicativeArrow = true
		m.phases[PhaseKey{Controller: assoc.Controller, Ref: assoc.Ref}] = assoc
		_ = key
	}
	return nil
}

// AllStages returns every stage for the controller, ordered by StageNum.
func (m *Model) AllStages() []Stage {
	out := make([]Stage, 0, len(m.stages))
	for _, s := range m.stages {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StageNum < out[j].StageNum })
	return out
}

// AllStreams returns every stream for the controller, ordered by StreamNum.
func (m *Model) AllStreams() []Stream {
	out := make([]Stream, 0, len(m.streams))
	for _, s := range m.streams {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StreamNum < out[j].StreamNum })
	return out
}

// Stats summarizes a Model's loaded collections for the validate
// subcommand's diagnostic output, mirroring the original's
// Intergreens.num_items_non_zero / PhaseDelays.num_items_linsig
// collection-level counters (controller.py).
type Stats struct {
	Phases                int
	Stages                int
	Streams               int
	IntergreensNonZero    int
	PhaseDelaysLinsig     int
	ProhibitedMoves       int
}

// Stats computes the summary counters for this Model.
func (m *Model) Stats() Stats {
	s := Stats{
		Phases:          len(m.phases),
		Stages:          len(m.stages),
		Streams:         len(m.streams),
		ProhibitedMoves: len(m.prohibited),
	}
	for _, ig := range m.intergreens {
		if ig.Time > 0 {
			s.IntergreensNonZero++
		}
	}
	for _, pd := range m.phaseDelays {
		if pd.DelayTime > 0 && pd.EndStage > 0 && pd.StartStage > 0 {
			s.PhaseDelaysLinsig++
		}
	}
	return s
}

// Validate checks invariants that must hold before emulation can begin:
// every stage belongs to a known stream, and every phase referenced by a
// stage exists, mirroring controller.py Controller.validate().
func (m *Model) Validate() error {
	for _, s := range m.stages {
		if _, ok := m.streams[StreamKey{Controller: s.Controller, StreamNum: s.StreamNum}]; !ok {
			return fmt.Errorf("controller: stage %d references unknown stream %d", s.StageNum, s.StreamNum)
		}
		for _, ref := range s.Phases {
			if _, ok := m.phases[PhaseKey{Controller: s.Controller, Ref: ref}]; !ok {
				return fmt.Errorf("controller: stage %d references unknown phase %s", s.StageNum, ref)
			}
		}
	}
	return nil
}
