package sequencer

import (
	"testing"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/plan"
	"github.com/google/go-cmp/cmp"
)

func buildThreeStageStream(t *testing.T) (controller.Key, *controller.Model, controller.Stream) {
	t.Helper()
	ctrl, err := controller.ParseKey("00/004")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	m := controller.NewModel(controller.Info{Key: ctrl})
	m.AddStream(controller.Stream{Controller: ctrl, StreamNum: 0})
	// StreamStageNum is offset well away from any F-bit stage number used in
	// these tests, so "is the active stage's stream_stage_number among the
	// commanded stage numbers" never coincidentally matches.
	stages := []controller.Stage{
		{Controller: ctrl, StageNum: 1, StreamNum: 0, StreamStageNum: 100, Phases: []controller.PhaseRef{"A"}},
		{Controller: ctrl, StageNum: 2, StreamNum: 0, StreamStageNum: 101, Phases: []controller.PhaseRef{"B"}},
		{Controller: ctrl, StageNum: 3, StreamNum: 0, StreamStageNum: 102, Phases: []controller.PhaseRef{"C"}},
		{Controller: ctrl, StageNum: 5, StreamNum: 0, StreamStageNum: 103, Phases: []controller.PhaseRef{"D"}},
	}
	for _, s := range stages {
		m.AddStage(s)
	}
	stream, _ := m.Stream(ctrl, 0)
	return ctrl, m, stream
}

// TestBuildJunctionThreeStage covers spec §8 scenario S1: stage sequence
// [1, 2, 3, 5] for controller J00/004 stream 0, plan 1, cycle 80.
func TestBuildJunctionThreeStage(t *testing.T) {
	ctrl, m, stream := buildThreeStageStream(t)
	ov := overlayFor(m, "AM")

	items := []plan.PlanSequenceItem{
		{Controller: ctrl, Index: 0, PulseTime: 0, FBits: []string{"F1"}},
		{Controller: ctrl, Index: 1, PulseTime: 20, FBits: []string{"F2"}},
		{Controller: ctrl, Index: 2, PulseTime: 40, FBits: []string{"F3"}},
		{Controller: ctrl, Index: 3, PulseTime: 60, FBits: []string{"F5"}},
	}

	in := Inputs{Model: m, Overlay: ov, CycleTime: 80, Period: "AM", Config: DefaultConfig()}
	result, err := BuildJunction(in, stream, items)
	if err != nil {
		t.Fatalf("BuildJunction: %v", err)
	}

	var got []int
	for _, item := range result.Items {
		got = append(got, item.Stage.StageNum)
	}
	want := []int{1, 2, 3, 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stage sequence mismatch (-want +got):\n%s", diff)
	}
}

// TestBuildJunctionTwoStream covers spec §8 scenario S2: a second stream's
// sequence [9, 8].
func TestBuildJunctionTwoStream(t *testing.T) {
	ctrl, err := controller.ParseKey("00/004")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	m := controller.NewModel(controller.Info{Key: ctrl})
	m.AddStream(controller.Stream{Controller: ctrl, StreamNum: 1})
	m.AddStage(controller.Stage{Controller: ctrl, StageNum: 8, StreamNum: 1, StreamStageNum: 0, Phases: []controller.PhaseRef{"E"}})
	m.AddStage(controller.Stage{Controller: ctrl, StageNum: 9, StreamNum: 1, StreamStageNum: 1, Phases: []controller.PhaseRef{"F"}})
	stream, _ := m.Stream(ctrl, 1)
	ov := overlayFor(m, "AM")

	items := []plan.PlanSequenceItem{
		{Controller: ctrl, Index: 0, PulseTime: 0, FBits: []string{"F9"}},
		{Controller: ctrl, Index: 1, PulseTime: 40, FBits: []string{"F8"}},
	}

	in := Inputs{Model: m, Overlay: ov, CycleTime: 80, Period: "AM", Config: DefaultConfig()}
	result, err := BuildJunction(in, stream, items)
	if err != nil {
		t.Fatalf("BuildJunction: %v", err)
	}

	var got []int
	for _, item := range result.Items {
		got = append(got, item.Stage.StageNum)
	}
	want := []int{9, 8}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stage sequence mismatch (-want +got):\n%s", diff)
	}
}

// TestBuildJunctionFiveStage covers spec §8 scenario S3: controller
// J03/193 stream 0, plan 3, expected [1, 2, 3, 4, 5].
func TestBuildJunctionFiveStage(t *testing.T) {
	ctrl, err := controller.ParseKey("03/193")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	m := controller.NewModel(controller.Info{Key: ctrl})
	m.AddStream(controller.Stream{Controller: ctrl, StreamNum: 0})
	for i, num := range []int{1, 2, 3, 4, 5} {
		m.AddStage(controller.Stage{
			Controller:     ctrl,
			StageNum:       num,
			StreamNum:      0,
			StreamStageNum: i,
			Phases:         []controller.PhaseRef{controller.PhaseRef(string(rune('A' + i)))},
		})
	}
	stream, _ := m.Stream(ctrl, 0)
	ov := overlayFor(m, "AM")

	items := []plan.PlanSequenceItem{
		{Controller: ctrl, Index: 0, PulseTime: 0, FBits: []string{"F1"}},
		{Controller: ctrl, Index: 1, PulseTime: 10, FBits: []string{"F2"}},
		{Controller: ctrl, Index: 2, PulseTime: 20, FBits: []string{"F3"}},
		{Controller: ctrl, Index: 3, PulseTime: 30, FBits: []string{"F4"}},
		{Controller: ctrl, Index: 4, PulseTime: 40, FBits: []string{"F5"}},
	}

	in := Inputs{Model: m, Overlay: ov, CycleTime: 60, Period: "AM", Config: DefaultConfig()}
	result, err := BuildJunction(in, stream, items)
	if err != nil {
		t.Fatalf("BuildJunction: %v", err)
	}

	var got []int
	for _, item := range result.Items {
		got = append(got, item.Stage.StageNum)
	}
	want := []int{1, 2, 3, 4, 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stage sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildJunctionEmitsProhibitedMoveDiagnostic(t *testing.T) {
	ctrl, m, stream := buildThreeStageStream(t)
	m.AddProhibitedMove(controller.ProhibitedStageMove{Controller: ctrl, EndStage: 1, StartStage: 2})
	ov := overlayFor(m, "AM")

	items := []plan.PlanSequenceItem{
		{Controller: ctrl, Index: 0, PulseTime: 0, FBits: []string{"F1"}},
		{Controller: ctrl, Index: 1, PulseTime: 20, FBits: []string{"F2"}},
	}

	in := Inputs{Model: m, Overlay: ov, CycleTime: 80, Period: "AM", Config: DefaultConfig()}
	result, err := BuildJunction(in, stream, items)
	if err != nil {
		t.Fatalf("BuildJunction: %v", err)
	}
	found := false
	for _, d := range result.Diagnostics {
		if d.Err.Error() == "prohibited stage transition" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a prohibited-stage-transition diagnostic, got %+v", result.Diagnostics)
	}
}

func overlayFor(m *controller.Model, period string) *overlay.Overlay {
	return overlay.New(m, period)
}
