package timeperiod

import "testing"

func TestDefaultRegistryOrdersPeriodsAMOPPM(t *testing.T) {
	r := Default()
	names := make([]string, 0, 3)
	for _, p := range r.All() {
		names = append(names, p.Name)
	}
	want := []string{"AM", "OP", "PM"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("position %d: got %q, want %q", i, names[i], n)
		}
	}
}

func TestGetReturnsFalseForUnknownName(t *testing.T) {
	r := Default()
	if _, ok := r.Get("NIGHT"); ok {
		t.Fatal("expected ok=false for unknown period name")
	}
}

func TestForSecondFindsContainingPeriod(t *testing.T) {
	r := Default()
	name, ok := r.ForSecond(8 * 3600)
	if !ok || name != "AM" {
		t.Fatalf("got (%q, %v), want (\"AM\", true)", name, ok)
	}
}

func TestForSecondFalseOutsideAllPeriods(t *testing.T) {
	r := Default()
	if _, ok := r.ForSecond(2 * 3600); ok {
		t.Fatal("expected ok=false for a second before the first period starts")
	}
}

func TestMustGetPanicsOnUnknownName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustGet to panic for an unknown period name")
		}
	}()
	Default().MustGet("NIGHT")
}

func TestNewRegistryLastDuplicateWins(t *testing.T) {
	r := NewRegistry([]Period{
		{Name: "AM", StartSecs: 0, EndSecs: 100},
		{Name: "AM", StartSecs: 200, EndSecs: 300},
	})
	p := r.MustGet("AM")
	if p.StartSecs != 200 || p.EndSecs != 300 {
		t.Fatalf("got %+v, want the second definition to win", p)
	}
	if len(r.All()) != 1 {
		t.Fatalf("got %d periods, want 1 (no duplicate order entry)", len(r.All()))
	}
}
