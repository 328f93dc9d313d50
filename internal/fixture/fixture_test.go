package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/plan"
	cache "github.com/Mohi32/signal-emulator/internal/store"
)

func TestDecodeControllerBuildsIndicativeArrowLinkage(t *testing.T) {
	data := []byte(`
key: "01/100"
controller_type: VA
phases:
  - ref: A
    kind: T
    term: 0
  - ref: C
    kind: F
    term: 2
    associated_phase: A
stages:
  - stage_num: 1
    stream_num: 1
    stream_stage_num: 1
    phases: [A, C]
  - stage_num: 2
    stream_num: 1
    stream_stage_num: 2
    phases: [A]
streams:
  - stream_num: 1
intergreens:
  - end_phase: A
    start_phase: C
    time: 5
`)
	m, err := DecodeController(data)
	if err != nil {
		t.Fatalf("DecodeController: %v", err)
	}
	a, ok := m.Phase(m.Info.Key, "A")
	if !ok {
		t.Fatal("phase A missing")
	}
	if !a.HasIndicativeArrow || a.IndicativeArrowPhase != "C" {
		t.Errorf("phase A indicative arrow = (%v,%q), want (true,\"C\")", a.HasIndicativeArrow, a.IndicativeArrowPhase)
	}
}

func TestLoadControllerDirLoadsEveryFile(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "c1.yaml", `
key: "01/100"
phases:
  - {ref: A, kind: T, term: 0}
stages:
  - {stage_num: 1, stream_num: 1, stream_stage_num: 1, phases: [A]}
streams:
  - {stream_num: 1}
`)
	writeFixture(t, dir, "c2.yaml", `
key: "02/200"
phases:
  - {ref: B, kind: T, term: 0}
stages:
  - {stage_num: 1, stream_num: 1, stream_stage_num: 1, phases: [B]}
streams:
  - {stream_num: 1}
`)

	models, err := LoadControllerDir(dir)
	if err != nil {
		t.Fatalf("LoadControllerDir: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	k1, _ := controller.ParseKey("01/100")
	if _, ok := models[k1]; !ok {
		t.Error("missing controller 01/100")
	}
}

func TestLoadPlanDirBuildsStoreAndTimetable(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "p1.yaml", `
controller: "01/100"
streams:
  - stream: 1
    plans:
      - number: 1
        name: "WAT 80"
        cycle_time: 80
        items:
          - {index: 0, pulse_time: 0}
          - {index: 1, pulse_time: 40}
timetable:
  - {stream: 1, period: AM, plan_number: 1}
`)

	store, timetable, err := LoadPlanDir(dir)
	if err != nil {
		t.Fatalf("LoadPlanDir: %v", err)
	}
	ctrl, _ := controller.ParseKey("01/100")
	plans := store.PlansForStream(controller.StreamKey{Controller: ctrl, StreamNum: 1})
	if len(plans) != 1 || plans[0].Name != "WAT 80" {
		t.Fatalf("plans = %+v, want one plan named WAT 80", plans)
	}
	items := store.SequenceItems(plan.Key{Controller: ctrl, Stream: plans[0].Stream, Number: plans[0].Number})
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	n, ok := timetable.PlanNumber(controller.StreamKey{Controller: ctrl, StreamNum: 1}, "AM")
	if !ok || n != 1 {
		t.Errorf("timetable lookup = (%d,%v), want (1,true)", n, ok)
	}
}

func TestLoadObservationDirBuildsStore(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "obs.yaml", `
observations:
  - {site: "J01/100", stage_id: "G1", total_time: 40, green_time: 35, interstage_time: 5, cycle_time: 80}
`)

	store, err := LoadObservationDir(dir)
	if err != nil {
		t.Fatalf("LoadObservationDir: %v", err)
	}
	ctrl, _ := controller.ParseKey("01/100")
	obs, ok := store.Lookup(ctrl, "G1")
	if !ok {
		t.Fatal("expected observation lookup to hit")
	}
	if obs.CycleTime != 80 {
		t.Errorf("CycleTime = %d, want 80", obs.CycleTime)
	}
}

func TestLoadControllerDirCachedServesUnchangedFileFromCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c1.yaml")
	writeFixture(t, dir, "c1.yaml", `
key: "01/100"
phases:
  - {ref: A, kind: T, term: 0}
stages:
  - {stage_num: 1, stream_num: 1, stream_stage_num: 1, phases: [A]}
streams:
  - {stream_num: 1}
`)

	c, err := cache.Open(filepath.Join(dir, "cache.sqlite"))
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	models, err := LoadControllerDirCached(ctx, dir, c)
	if err != nil {
		t.Fatalf("LoadControllerDirCached (first pass): %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("got %d models, want 1", len(models))
	}

	// Corrupt the file in place without touching its mtime: a correctly
	// wired cache must still serve the previously parsed document and
	// never attempt to re-decode this now-invalid YAML.
	info, statErr := os.Stat(path)
	if statErr != nil {
		t.Fatalf("Stat: %v", statErr)
	}
	if err := os.WriteFile(path, []byte("not valid yaml: [["), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	models, err = LoadControllerDirCached(ctx, dir, c)
	if err != nil {
		t.Fatalf("LoadControllerDirCached (cached pass): %v", err)
	}
	k, _ := controller.ParseKey("01/100")
	if _, ok := models[k]; !ok {
		t.Fatal("expected the cached controller to still be present on the cache-hit pass")
	}
}

func TestLoadControllerDirCachedReparsesAfterMtimeChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c1.yaml")
	writeFixture(t, dir, "c1.yaml", `
key: "01/100"
phases:
  - {ref: A, kind: T, term: 0}
stages:
  - {stage_num: 1, stream_num: 1, stream_stage_num: 1, phases: [A]}
streams:
  - {stream_num: 1}
`)

	c, err := cache.Open(filepath.Join(dir, "cache.sqlite"))
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if _, err := LoadControllerDirCached(ctx, dir, c); err != nil {
		t.Fatalf("LoadControllerDirCached (first pass): %v", err)
	}

	if err := os.WriteFile(path, []byte(`
key: "02/200"
phases:
  - {ref: B, kind: T, term: 0}
stages:
  - {stage_num: 1, stream_num: 1, stream_stage_num: 1, phases: [B]}
streams:
  - {stream_num: 1}
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	models, err := LoadControllerDirCached(ctx, dir, c)
	if err != nil {
		t.Fatalf("LoadControllerDirCached (second pass): %v", err)
	}
	k, _ := controller.ParseKey("02/200")
	if _, ok := models[k]; !ok {
		t.Fatal("expected the updated file's new controller key after its mtime advanced")
	}
}

func writeFixture(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile %s: %v", name, err)
	}
}
