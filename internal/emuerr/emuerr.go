// Package emuerr classifies the error taxonomy of the emulation engine
// (spec §7): a fixed set of sentinel errors, each tagged with a severity,
// so callers can distinguish "log and continue" from "abort this
// (controller, period)" without string matching.
package emuerr

import "errors"

// Severity classifies whether an error kind is recoverable.
type Severity int

const (
	// Warning-severity errors are recorded on the run's diagnostic log and
	// the unit of work that produced them is skipped or repaired in place;
	// the overall run continues.
	Warning Severity = iota
	// Fatal-severity errors abort the current (controller, period)
	// emulation only; they never abort the process.
	Fatal
)

func (s Severity) String() string {
	if s == Fatal {
		return "fatal"
	}
	return "warning"
}

var (
	// ErrMissingPlanForStream: no usable plan could be selected for a stream.
	ErrMissingPlanForStream = errors.New("missing plan for stream")
	// ErrNoStagesForController: a controller has no stream->plan mapping at all.
	ErrNoStagesForController = errors.New("no stages for controller")
	// ErrProhibitedStageTransition: sequencer chose a move the controller forbids.
	ErrProhibitedStageTransition = errors.New("prohibited stage transition")
	// ErrRepeatedStageInSequence: consecutive duplicate stage in a sequence.
	ErrRepeatedStageInSequence = errors.New("repeated stage in sequence")
	// ErrInvalidPhaseDelay: phase_ref not found in either stage of a transition.
	ErrInvalidPhaseDelay = errors.New("invalid phase delay")
	// ErrInterstageReductionImpossible: overlay reduction could not reach the target.
	ErrInterstageReductionImpossible = errors.New("interstage reduction impossible")
	// ErrInfeasibleSchedule: green_length would be negative after reduction.
	ErrInfeasibleSchedule = errors.New("infeasible schedule")
	// ErrUnknownPhaseType: phase kind not in {Traffic,Pedestrian,Filter,Dummy}.
	ErrUnknownPhaseType = errors.New("unknown phase type")
	// ErrUnknownTerminationType: termination not in the known enumeration.
	ErrUnknownTerminationType = errors.New("unknown termination type")
)

// severities maps each sentinel to its fixed severity per spec §7.
var severities = map[error]Severity{
	ErrMissingPlanForStream:          Warning,
	ErrNoStagesForController:         Warning,
	ErrProhibitedStageTransition:     Warning,
	ErrRepeatedStageInSequence:       Warning,
	ErrInvalidPhaseDelay:             Warning,
	ErrInterstageReductionImpossible: Fatal,
	ErrInfeasibleSchedule:            Fatal,
	ErrUnknownPhaseType:              Fatal,
	ErrUnknownTerminationType:        Fatal,
}

// SeverityOf returns the severity registered for err's sentinel chain, or
// Fatal if err does not match any known sentinel (fail closed).
func SeverityOf(err error) Severity {
	for sentinel, sev := range severities {
		if errors.Is(err, sentinel) {
			return sev
		}
	}
	return Fatal
}

// IsFatal reports whether err should abort the current (controller, period).
func IsFatal(err error) bool {
	return err != nil && SeverityOf(err) == Fatal
}

// Diagnostic is one recorded warning or fatal error from a run, carrying the
// offending key(s) verbatim (spec §7: "Warnings carry the offending key(s)
// verbatim").
type Diagnostic struct {
	Err       error
	Severity  Severity
	Keys      []string
	Component string
}

// NewDiagnostic builds a Diagnostic from err, deriving its severity.
func NewDiagnostic(component string, err error, keys ...string) Diagnostic {
	return Diagnostic{
		Err:       err,
		Severity:  SeverityOf(err),
		Keys:      keys,
		Component: component,
	}
}

func (d Diagnostic) String() string {
	if len(d.Keys) == 0 {
		return d.Err.Error()
	}
	s := d.Err.Error() + ":"
	for _, k := range d.Keys {
		s += " " + k
	}
	return s
}
