// Package observation implements the Observation Model (spec §3): M37
// stage-count averages keyed by (site, stage id), used both to pick the
// cycle time a signal plan actually ran at and to drive the Stage
// Sequencer's "does this stage actually get called" checks.
//
// Grounded on m37_average.py and controller.py's Stage.get_m37 /
// Stage.m37_exists, including their site-id fallback retries: M37 data is
// sometimes filed under a site's old "P"-prefixed code, or under stream 0
// for a pedestrian-suffixed site, rather than under the controller's
// current normalized key.
package observation

import (
	"strconv"
	"strings"

	"github.com/Mohi32/signal-emulator/internal/controller"
)

// StageObservation is one M37 average for a (site, stage id) pair,
// grounded on m37_average.py's M37Average. TotalTime is the stage's full
// observed duration (GreenTime + InterstageTime); the data model invariant
// (spec §3) requires GreenTime + InterstageTime <= CycleTime.
type StageObservation struct {
	Site          string
	StageID       string
	TotalTime     int
	GreenTime     int
	InterstageTime int
	CycleTime     int
}

// Store holds every observation loaded for a run, keyed by the raw site-id
// string the data was filed under (which may not match a controller's
// normalized Key).
type Store struct {
	bySite map[string]map[string]StageObservation
}

// NewStore builds an empty Store.
func NewStore() *Store {
	return &Store{bySite: make(map[string]map[string]StageObservation)}
}

// Add registers an observation under its raw site id.
func (s *Store) Add(obs StageObservation) {
	m, ok := s.bySite[obs.Site]
	if !ok {
		m = make(map[string]StageObservation)
		s.bySite[obs.Site] = m
	}
	m[obs.StageID] = obs
}

func (s *Store) lookupSite(site, stageID string) (StageObservation, bool) {
	m, ok := s.bySite[site]
	if !ok {
		return StageObservation{}, false
	}
	obs, ok := m[stageID]
	return obs, ok
}

// Lookup finds the observation for a controller's stage id, retrying under
// the fallback site-id forms the original data set is known to use when
// the canonical normalized key finds nothing: the zero-padded "long" form,
// then the legacy "P"-prefixed form, mirroring Stage.m37_exists's retry
// loop.
func (s *Store) Lookup(ctrl controller.Key, stageID string) (StageObservation, bool) {
	if obs, ok := s.lookupSite(ctrl.String(), stageID); ok {
		return obs, true
	}
	if obs, ok := s.lookupSite(ctrl.LongString(), stageID); ok {
		return obs, true
	}
	legacy := "P" + strings.TrimPrefix(ctrl.String(), "J")
	if obs, ok := s.lookupSite(legacy, stageID); ok {
		return obs, true
	}
	return StageObservation{}, false
}

// Exists reports whether an M37 observation is on file for the given stage
// id, mirroring Stage.m37_exists when m37_check is enabled.
func (s *Store) Exists(ctrl controller.Key, stageID string) bool {
	_, ok := s.Lookup(ctrl, stageID)
	return ok
}

// CycleTime resolves the observed cycle time for a controller by probing
// M37 stage ids "G1".."G{maxStage}" in order and returning the first hit's
// CycleTime, mirroring SignalPlans.get_m37_cycle_time. If nothing is found
// under this controller's stream, the caller should retry with the
// controller's stream-0 key (the original's recursion into stream 0 for
// pedestrian-suffixed sites); this package only resolves a single key's
// probe since stream selection is the Driver's concern.
func (s *Store) CycleTime(ctrl controller.Key, maxStage int) (int, bool) {
	for n := 1; n <= maxStage; n++ {
		stageID := "G" + strconv.Itoa(n)
		if obs, ok := s.Lookup(ctrl, stageID); ok {
			return obs.CycleTime, true
		}
	}
	return 0, false
}

// ObservedStageNumbers returns the set of M37-observed stage numbers for a
// controller, translating each on-file stage id back to a plain integer
// ("G3" -> 3, "GX" -> 1, "PG" -> 2), mirroring
// SignalPlans.get_m37_stage_numbers.
func (s *Store) ObservedStageNumbers(ctrl controller.Key) map[int]bool {
	out := make(map[int]bool)
	for _, site := range []string{ctrl.String(), ctrl.LongString(), "P" + strings.TrimPrefix(ctrl.String(), "J")} {
		m, ok := s.bySite[site]
		if !ok {
			continue
		}
		for stageID := range m {
			switch stageID {
			case "GX":
				out[1] = true
			case "PG":
				out[2] = true
			default:
				if n, ok := parseGStage(stageID); ok {
					out[n] = true
				}
			}
		}
	}
	return out
}

func parseGStage(stageID string) (int, bool) {
	if !strings.HasPrefix(stageID, "G") {
		return 0, false
	}
	n := 0
	for _, r := range stageID[1:] {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
