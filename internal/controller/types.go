package controller

import "fmt"

// PhaseKind is the controller-assigned phase type, grounded on enums.py's
// PhaseType (T=Traffic, P=Pedestrian, N=Pedestrian-with-N-code, F=Filter,
// D=Dummy).
type PhaseKind int

const (
	Traffic PhaseKind = iota
	Pedestrian
	Filter
	Dummy
)

func (k PhaseKind) String() string {
	switch k {
	case Traffic:
		return "traffic"
	case Pedestrian:
		return "pedestrian"
	case Filter:
		return "filter"
	case Dummy:
		return "dummy"
	default:
		return "unknown"
	}
}

// ParsePhaseKind maps the single-letter controller code to a PhaseKind.
func ParsePhaseKind(code string) (PhaseKind, error) {
	switch code {
	case "T":
		return Traffic, nil
	case "P", "N":
		return Pedestrian, nil
	case "F":
		return Filter, nil
	case "D":
		return Dummy, nil
	default:
		return 0, fmt.Errorf("controller: unknown phase type code %q", code)
	}
}

// Termination is the controller-assigned termination type for a phase,
// grounded on enums.py's PhaseTermType.
type Termination int

const (
	EndOfStage Termination = iota
	AssociatedGainsRight
	AssociatedLosesRight
	OtherTermination
)

func (t Termination) String() string {
	switch t {
	case EndOfStage:
		return "end_of_stage"
	case AssociatedGainsRight:
		return "associated_phase_gains_right"
	case AssociatedLosesRight:
		return "associated_phase_loses_right"
	case OtherTermination:
		return "other"
	default:
		return "unknown"
	}
}

// ParseTermination maps the original's 0..3 termination_type_int to a
// Termination.
func ParseTermination(code int) (Termination, error) {
	switch code {
	case 0:
		return EndOfStage, nil
	case 1:
		return AssociatedGainsRight, nil
	case 2:
		return AssociatedLosesRight, nil
	case 3:
		return OtherTermination, nil
	default:
		return 0, fmt.Errorf("controller: unknown termination type code %d", code)
	}
}

// ProjectedKind is the role a phase plays in the Phase Projector (spec
// §4.8), derived from (PhaseKind, Termination) the same way the original
// derives LinsigPhaseType from (PhaseType, PhaseTermType).
type ProjectedKind int

const (
	ProjectedTraffic ProjectedKind = iota
	ProjectedPedestrian
	ProjectedFilter
	ProjectedIndicativeArrow
	ProjectedDummy
)

func (p ProjectedKind) String() string {
	switch p {
	case ProjectedTraffic:
		return "traffic"
	case ProjectedPedestrian:
		return "pedestrian"
	case ProjectedFilter:
		return "filter"
	case ProjectedIndicativeArrow:
		return "indicative_arrow"
	case ProjectedDummy:
		return "dummy"
	default:
		return "unknown"
	}
}

// projectionTable mirrors enums.py's PhaseTypeAndTermTypeToLinsigPhaseType:
// every (PhaseKind, Termination) pair maps to exactly one ProjectedKind.
// A Filter phase whose termination is EndOfStage is a controller-data
// error (spec §4.1): filters only ever end by gaining or losing the right
// of way to their associated phase, never by the stage itself ending.
// OtherTermination (the source's unexplained termination_type_int == 3, spec
// §9 Open Question) has no named meaning for any phase kind: every kind
// maps it to Dummy, and callers are expected to log when they see it.
var projectionTable = map[PhaseKind]map[Termination]ProjectedKind{
	Traffic: {
		EndOfStage:           ProjectedTraffic,
		AssociatedGainsRight: ProjectedFilter,
		AssociatedLosesRight: ProjectedTraffic,
		OtherTermination:     ProjectedDummy,
	},
	Pedestrian: {
		EndOfStage:           ProjectedPedestrian,
		AssociatedGainsRight: ProjectedPedestrian,
		AssociatedLosesRight: ProjectedPedestrian,
		OtherTermination:     ProjectedDummy,
	},
	Filter: {
		AssociatedGainsRight: ProjectedFilter,
		AssociatedLosesRight: ProjectedIndicativeArrow,
		OtherTermination:     ProjectedDummy,
	},
	Dummy: {
		EndOfStage:           ProjectedDummy,
		AssociatedGainsRight: ProjectedDummy,
		AssociatedLosesRight: ProjectedDummy,
		OtherTermination:     ProjectedDummy,
	},
}

// Project resolves a phase's (kind, termination) pair to its ProjectedKind,
// per spec §4.1's decision table. It returns ErrUnknownTerminationType (via
// the caller wrapping) when the pair has no defined mapping.
func Project(kind PhaseKind, term Termination) (ProjectedKind, bool) {
	byTerm, ok := projectionTable[kind]
	if !ok {
		return 0, false
	}
	pk, ok := byTerm[term]
	return pk, ok
}

// Phase is a single signal phase on a Controller, grounded on controller.py
// Phase.
type Phase struct {
	Controller Key
	Ref        PhaseRef
	Kind       PhaseKind
	Term       Termination
	MinTime    int
	Text       string

	// AssociatedPhase is the phase this one is linked to when Term is
	// AssociatedGainsRight or AssociatedLosesRight (Phase.associated_phase_ref).
	AssociatedPhase PhaseRef

	// IndicativeArrowPhase is the back-pointer set by
	// SetIndicativeArrowPhases: the Filter phase (if any) whose
	// AssociatedPhase points at this one with Term ==
	// AssociatedLosesRight (controller.py Phases.set_indicative_arrow_phases).
	IndicativeArrowPhase PhaseRef
	HasIndicativeArrow   bool
}

// Projected resolves this phase's ProjectedKind.
func (p Phase) Projected() (ProjectedKind, bool) {
	return Project(p.Kind, p.Term)
}

// Stage is one signal stage, grounded on controller.py Stage.
type Stage struct {
	Controller       Key
	StageNum         int
	Name             string
	StreamNum        int
	StreamStageNum   int
	Phases           []PhaseRef
}

// M37StageID returns the observation-model stage identifier used to look up
// M37 counts for this stage ("G{n}" for ordinary stages, "GX"/"PG" for the
// pedestrian-coded stage numbers 1 and 2), mirroring Stage.m37_stage_id /
// m37_stage_id_ped.
func (s Stage) M37StageID(isPedestrianController bool) string {
	if isPedestrianController {
		switch s.StageNum {
		case 1:
			return "GX"
		case 2:
			return "PG"
		}
	}
	return fmt.Sprintf("G%d", s.StageNum)
}

// Stream is one stream of stages within a Controller, grounded on
// controller.py Stream.
type Stream struct {
	Controller Key
	StreamNum  int
	IsPVPXMode bool
}

// Intergreen is the minimum clearance time between an ending and a starting
// phase, grounded on controller.py Intergreen.
type Intergreen struct {
	Controller Key
	EndPhase   PhaseRef
	StartPhase PhaseRef
	Time       int
}

// PhaseDelayKind classifies a PhaseDelay by whether it delays a phase that
// is gaining or losing the right of way across a stage transition,
// mirroring Phase.phase_delay_type.
type PhaseDelayKind int

const (
	Gaining PhaseDelayKind = iota
	Losing
)

func (k PhaseDelayKind) String() string {
	if k == Gaining {
		return "gaining"
	}
	return "losing"
}

// PhaseDelay is the extra delay applied to a phase at a specific stage
// transition, grounded on controller.py PhaseDelay.
type PhaseDelay struct {
	Controller Key
	EndStage   int
	StartStage int
	Phase      PhaseRef
	DelayTime  int
	Kind       PhaseDelayKind
}

// ModifiedIntergreen is a period-scoped overlay entry over an Intergreen,
// grounded on controller.py ModifiedIntergreen.
type ModifiedIntergreen struct {
	Controller   Key
	Period       string
	EndPhase     PhaseRef
	StartPhase   PhaseRef
	Time         int
	OriginalTime int
}

// ModifiedPhaseDelay is a period-scoped overlay entry over a PhaseDelay,
// grounded on controller.py ModifiedPhaseDelay.
type ModifiedPhaseDelay struct {
	Controller     Key
	Period         string
	EndStage       int
	StartStage     int
	Phase          PhaseRef
	DelayTime      int
	OriginalDelay  int
}

// ProhibitedStageMove is a stage transition the controller's hardware
// forbids, grounded on controller.py ProhibitedStageMove.
type ProhibitedStageMove struct {
	Controller Key
	EndStage   int
	StartStage int
}

// PhaseStageDemandDependency records that a phase is only demand-dependent
// within a given stage, grounded on controller.py PhaseStageDemandDependency.
// Carried through for completeness; the emulation engine does not currently
// branch on demand dependency (spec Non-goals exclude detector/demand logic)
// but the field survives so downstream consumers of exported data retain it.
type PhaseStageDemandDependency struct {
	Controller Key
	Stage      int
	Phase      PhaseRef
}
