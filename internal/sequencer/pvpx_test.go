package sequencer

import (
	"testing"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/overlay"
	"github.com/Mohi32/signal-emulator/internal/plan"
)

func TestBuildPVPXProducesTwoItems(t *testing.T) {
	ctrl, err := controller.ParseKey("02/011")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	m := controller.NewModel(controller.Info{Key: ctrl})
	m.AddStream(controller.Stream{Controller: ctrl, StreamNum: 0, IsPVPXMode: true})
	m.AddStage(controller.Stage{Controller: ctrl, StageNum: 1, StreamNum: 0, StreamStageNum: 0, Phases: []controller.PhaseRef{"A"}})
	m.AddStage(controller.Stage{Controller: ctrl, StageNum: 2, StreamNum: 0, StreamStageNum: 1, Phases: []controller.PhaseRef{"B"}})
	m.AddPhase(controller.Phase{Controller: ctrl, Ref: "B", Kind: controller.Pedestrian, MinTime: 6})
	stream, _ := m.Stream(ctrl, 0)

	items := []plan.PlanSequenceItem{
		{Controller: ctrl, Index: 0, PulseTime: 0, FBits: []string{"F1"}},
		{Controller: ctrl, Index: 1, PulseTime: 40, FBits: []string{"F2"}},
	}
	in := Inputs{Model: m, Overlay: overlay.New(m, "AM"), CycleTime: 80, Period: "AM", Config: DefaultConfig()}
	result, err := BuildPVPX(in, stream, items)
	if err != nil {
		t.Fatalf("BuildPVPX: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(result.Items))
	}
	if result.Items[0].Stage.StageNum != 1 || result.Items[1].Stage.StageNum != 2 {
		t.Errorf("stages = [%d,%d], want [1,2]", result.Items[0].Stage.StageNum, result.Items[1].Stage.StageNum)
	}
}
