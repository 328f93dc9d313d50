package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/plan"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// buildThreeStageController mirrors the sequencer package's S1 fixture: a
// four-stage junction stream [1,2,3,5] on an 80s cycle, now fleshed out
// with phases and intergreens so the full Driver pipeline (Sequencer ->
// Stage-Length -> Projector) can run end to end.
func buildThreeStageController(t *testing.T) (controller.Key, *controller.Model) {
	t.Helper()
	ctrl, err := controller.ParseKey("00/004")
	require.NoError(t, err)

	m := controller.NewModel(controller.Info{Key: ctrl})
	m.AddStream(controller.Stream{Controller: ctrl, StreamNum: 0})

	stages := []struct {
		num   int
		phase controller.PhaseRef
	}{{1, "A"}, {2, "B"}, {3, "C"}, {5, "D"}}
	for i, s := range stages {
		m.AddStage(controller.Stage{Controller: ctrl, StageNum: s.num, StreamNum: 0, StreamStageNum: 100 + i, Phases: []controller.PhaseRef{s.phase}})
		m.AddPhase(controller.Phase{Controller: ctrl, Ref: s.phase, Kind: controller.Traffic, Term: controller.EndOfStage})
	}
	pairs := [][2]controller.PhaseRef{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"D", "A"}}
	for _, p := range pairs {
		m.AddIntergreen(controller.Intergreen{Controller: ctrl, EndPhase: p[0], StartPhase: p[1], Time: 5})
	}
	return ctrl, m
}

func buildPlanStore(ctrl controller.Key) *plan.Store {
	store := plan.NewStore()
	store.AddPlan(plan.Plan{Controller: ctrl, Stream: 0, Number: 1, Name: "AM", CycleTime: 80})
	items := []plan.PlanSequenceItem{
		{Controller: ctrl, Stream: 0, PlanNumber: 1, Index: 0, PulseTime: 0, FBits: []string{"F1"}},
		{Controller: ctrl, Stream: 0, PlanNumber: 1, Index: 1, PulseTime: 20, FBits: []string{"F2"}},
		{Controller: ctrl, Stream: 0, PlanNumber: 1, Index: 2, PulseTime: 40, FBits: []string{"F3"}},
		{Controller: ctrl, Stream: 0, PlanNumber: 1, Index: 3, PulseTime: 60, FBits: []string{"F5"}},
	}
	for _, it := range items {
		store.AddSequenceItem(it)
	}
	return store
}

func TestRunProducesPhaseTimingsForEveryPhase(t *testing.T) {
	ctrl, m := buildThreeStageController(t)
	store := buildPlanStore(ctrl)

	in := Inputs{
		Models: map[controller.Key]*controller.Model{ctrl: m},
		Plans:  store,
	}
	cfg := Config{Periods: []string{"AM"}}

	results, err := Run(context.Background(), in, cfg)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.Empty(t, res.Diagnostics)
	require.Equal(t, 80, res.Plan.CycleTime)
	require.Len(t, res.Plan.Streams, 1)
	require.Len(t, res.Plan.Streams[0].Stages, 4)

	seen := make(map[controller.PhaseRef]bool)
	for _, pt := range res.Timings {
		seen[pt.Phase] = true
	}
	for _, ref := range []controller.PhaseRef{"A", "B", "C", "D"} {
		require.True(t, seen[ref], "missing phase timing for %s", ref)
	}
}

func TestRunSkipsStreamWithNoMatchingPlan(t *testing.T) {
	ctrl, m := buildThreeStageController(t)
	store := plan.NewStore() // no plans registered at all

	in := Inputs{
		Models: map[controller.Key]*controller.Model{ctrl: m},
		Plans:  store,
	}
	cfg := Config{Periods: []string{"AM"}}

	results, err := Run(context.Background(), in, cfg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotEmpty(t, results[0].Diagnostics)
}

func TestRunHonorsWorkerLimit(t *testing.T) {
	ctrl, m := buildThreeStageController(t)
	store := buildPlanStore(ctrl)

	in := Inputs{
		Models: map[controller.Key]*controller.Model{ctrl: m},
		Plans:  store,
	}
	cfg := Config{Periods: []string{"AM", "OP", "PM"}, Workers: 1}

	results, err := Run(context.Background(), in, cfg)
	require.NoError(t, err)
	require.Len(t, results, 3)
}
