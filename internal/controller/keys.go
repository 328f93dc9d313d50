package controller

import (
	"fmt"
	"strconv"
	"strings"
)

// Key identifies a Controller by its composite (area, site) pair, spec §3:
// "identified by a composite key (area, site)". The canonical string form
// is "J<area:2>/<site:3>".
type Key struct {
	Area string
	Site string
}

// ParseKey normalizes a raw site-id string per spec §6 / §8 (S4):
//   - numeric-only prefixes gain a leading "J" ("01/125" -> "J01/125")
//   - "P..." prefixes are renamed to "J..." ("P01/000007/U" -> "J01/007")
//   - the site suffix is the last three digits of the second segment; a
//     segment shorter than three digits is left-padded with zeros, a
//     longer one (the "000NNN" long form) is truncated to its last three.
//     Any further "/..." suffix (cell/link qualifiers) is discarded.
func ParseKey(raw string) (Key, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) < 2 {
		return Key{}, fmt.Errorf("controller: malformed site id %q", raw)
	}
	prefix := parts[0]
	if prefix == "" {
		return Key{}, fmt.Errorf("controller: malformed site id %q", raw)
	}
	area := prefix
	if first := prefix[0]; (first >= 'A' && first <= 'Z') || (first >= 'a' && first <= 'z') {
		area = prefix[1:]
	}
	if area == "" {
		return Key{}, fmt.Errorf("controller: malformed site id %q", raw)
	}
	digits := parts[1]
	if digits == "" {
		return Key{}, fmt.Errorf("controller: malformed site id %q", raw)
	}
	site := last3Padded(digits)
	return Key{Area: area, Site: site}, nil
}

func last3Padded(digits string) string {
	if len(digits) >= 3 {
		return digits[len(digits)-3:]
	}
	return strings.Repeat("0", 3-len(digits)) + digits
}

// String returns the canonical "J<area>/<site>" form.
func (k Key) String() string {
	return fmt.Sprintf("J%s/%s", k.Area, k.Site)
}

// LongString returns the padded "J<area>/000<site>" form used by some
// pedestrian M37 lookups in the original source (signal_emulator.controller
// .Controller.site_number_long).
func (k Key) LongString() string {
	return fmt.Sprintf("J%s/000%s", k.Area, k.Site)
}

// AreaNumber returns the integer borough/area code, mirroring the original
// Controller.borough_number property.
func (k Key) AreaNumber() int {
	n, _ := strconv.Atoi(k.Area)
	return n
}

// SiteNumberInt returns a single sortable integer combining area and site,
// mirroring Controller.site_number_int in the original source.
func (k Key) SiteNumberInt() int {
	area, _ := strconv.Atoi(k.Area)
	site, _ := strconv.Atoi(k.Site)
	return area*1000 + site
}

// PhaseRef is a 1-2 character phase code ("A".."Z", "AA".."ZZ", ...).
type PhaseRef string

// Number returns the stable base-26 integer encoding (A=1, ..., Z=26,
// AA=27, ...), per spec §3.
func (p PhaseRef) Number() int {
	s := strings.ToUpper(string(p))
	n := 0
	for _, r := range s {
		n = n*26 + int(r-'A'+1)
	}
	return n
}

// StageKey identifies a Stage within a Controller.
type StageKey struct {
	Controller Key
	StageNum   int
}

// PhaseKey identifies a Phase within a Controller.
type PhaseKey struct {
	Controller Key
	Ref        PhaseRef
}

// StreamKey identifies a Stream within a Controller.
type StreamKey struct {
	Controller Key
	StreamNum  int
}

// StageMoveKey identifies an ordered (end_stage, start_stage) transition.
type StageMoveKey struct {
	Controller Key
	EndStage   int
	StartStage int
}

// IntergreenKey identifies an ordered (end_phase, start_phase) pair.
type IntergreenKey struct {
	Controller Key
	EndPhase   PhaseRef
	StartPhase PhaseRef
}

// PhaseDelayKey identifies a per-transition, per-phase delay entry.
type PhaseDelayKey struct {
	Controller Key
	EndStage   int
	StartStage int
	Phase      PhaseRef
}
