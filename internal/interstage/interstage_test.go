package interstage

import (
	"errors"
	"testing"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/emuerr"
	"github.com/Mohi32/signal-emulator/internal/overlay"
)

func setup(t *testing.T) (controller.Key, *controller.Model, controller.Stage, controller.Stage) {
	t.Helper()
	ctrl, err := controller.ParseKey("01/125")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	m := controller.NewModel(controller.Info{Key: ctrl})
	end := controller.Stage{Controller: ctrl, StageNum: 1, Phases: []controller.PhaseRef{"A"}}
	start := controller.Stage{Controller: ctrl, StageNum: 2, Phases: []controller.PhaseRef{"C"}}
	m.AddStage(end)
	m.AddStage(start)
	m.AddIntergreen(controller.Intergreen{Controller: ctrl, EndPhase: "A", StartPhase: "C", Time: 6})
	m.AddPhaseDelay(controller.PhaseDelay{Controller: ctrl, EndStage: 1, StartStage: 2, Phase: "A", DelayTime: 2})
	m.AddPhaseDelay(controller.PhaseDelay{Controller: ctrl, EndStage: 1, StartStage: 2, Phase: "C", DelayTime: 1})
	return ctrl, m, end, start
}

func TestRequiredInterstage(t *testing.T) {
	ctrl, m, end, start := setup(t)
	ov := overlay.New(m, "AM")

	got := RequiredInterstage(m, ov, ctrl, end, start)
	want := 8 // max(2+6, 1) = 8
	if got != want {
		t.Errorf("RequiredInterstage = %d, want %d", got, want)
	}
}

func TestReduceToObservedValue(t *testing.T) {
	ctrl, m, end, start := setup(t)
	ov := overlay.New(m, "AM")

	if err := Reduce(m, ov, ctrl, end, start, 5); err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if got := RequiredInterstage(m, ov, ctrl, end, start); got != 5 {
		t.Errorf("RequiredInterstage after Reduce = %d, want 5", got)
	}
	if ig, _ := ov.IntergreenTime(ctrl, "A", "C"); ig != 3 {
		t.Errorf("intergreen after Reduce = %d, want 3 (target 5 - end delay 2)", ig)
	}
}

func TestReduceNoOpWhenAlreadyAtTarget(t *testing.T) {
	ctrl, m, end, start := setup(t)
	ov := overlay.New(m, "AM")
	if err := Reduce(m, ov, ctrl, end, start, 8); err != nil {
		t.Fatalf("Reduce to current required value should succeed, got: %v", err)
	}
}

func TestReduceFailsWhenOverlayAlreadyLowerFromAnotherTransition(t *testing.T) {
	ctrl, m, end, start := setup(t)
	ov := overlay.New(m, "AM")

	// A prior reduction (for a different stage transition reusing the same
	// intergreen key) already pinned A->C down to 1.
	if err := ov.SetIntergreen(ctrl, "A", "C", 1); err != nil {
		t.Fatalf("SetIntergreen: %v", err)
	}

	// The already-overlaid intergreen caps the achievable required
	// interstage at 3 (endDelay 2 + ig 1), so reducing to 5 can never reach
	// its target and the final equality check must fail.
	err := Reduce(m, ov, ctrl, end, start, 5)
	if err == nil {
		t.Fatal("expected Reduce to fail, got nil")
	}
	if !errors.Is(err, emuerr.ErrInterstageReductionImpossible) {
		t.Errorf("error = %v, want wrapping ErrInterstageReductionImpossible", err)
	}
}
