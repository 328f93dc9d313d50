// Package timeperiod implements the Time-Period Registry (spec §2.1, §3):
// a small ordered set of named intervals, each run once per emulation.
package timeperiod

import "fmt"

// Period is one named interval, offsets in seconds from midnight.
type Period struct {
	Name      string
	LongName  string
	Index     int
	StartSecs int
	EndSecs   int
}

// Contains reports whether secsSinceMidnight falls within [Start, End].
func (p Period) Contains(secsSinceMidnight int) bool {
	return secsSinceMidnight >= p.StartSecs && secsSinceMidnight <= p.EndSecs
}

// Registry is an ordered collection of Periods, keyed by name.
type Registry struct {
	order []string
	byKey map[string]Period
}

// NewRegistry builds a Registry from periods, preserving input order.
func NewRegistry(periods []Period) *Registry {
	r := &Registry{byKey: make(map[string]Period, len(periods))}
	for _, p := range periods {
		if _, exists := r.byKey[p.Name]; !exists {
			r.order = append(r.order, p.Name)
		}
		r.byKey[p.Name] = p
	}
	return r
}

// Default returns the built-in AM/OP/PM registry used when no configuration
// overrides it.
func Default() *Registry {
	return NewRegistry([]Period{
		{Name: "AM", LongName: "Morning Peak", Index: 1, StartSecs: 7 * 3600, EndSecs: 10 * 3600},
		{Name: "OP", LongName: "Off Peak", Index: 2, StartSecs: 10 * 3600, EndSecs: 16 * 3600},
		{Name: "PM", LongName: "Evening Peak", Index: 3, StartSecs: 16 * 3600, EndSecs: 19 * 3600},
	})
}

// Get returns the Period with the given name.
func (r *Registry) Get(name string) (Period, bool) {
	p, ok := r.byKey[name]
	return p, ok
}

// MustGet returns the Period with the given name, panicking if absent. Used
// only where the caller has already validated the name exists.
func (r *Registry) MustGet(name string) Period {
	p, ok := r.byKey[name]
	if !ok {
		panic(fmt.Sprintf("timeperiod: unknown period %q", name))
	}
	return p
}

// All returns every Period in registration order.
func (r *Registry) All() []Period {
	out := make([]Period, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byKey[name])
	}
	return out
}

// ForSecond returns the name of the period containing secsSinceMidnight, and
// false if no period covers it.
func (r *Registry) ForSecond(secsSinceMidnight int) (string, bool) {
	for _, name := range r.order {
		if r.byKey[name].Contains(secsSinceMidnight) {
			return name, true
		}
	}
	return "", false
}
