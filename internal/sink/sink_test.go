package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohi32/signal-emulator/internal/controller"
	"github.com/Mohi32/signal-emulator/internal/driver"
	"github.com/Mohi32/signal-emulator/internal/emuerr"
	"github.com/Mohi32/signal-emulator/internal/signalplan"
)

func testResult(t *testing.T) driver.Result {
	t.Helper()
	key, err := controller.ParseKey("01/100")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	return driver.Result{
		Controller: key,
		Period:     "AM",
		Plan:       signalplan.Plan{Controller: key, Period: "AM", CycleTime: 80},
		Timings: []signalplan.PhaseTiming{
			{Controller: key, Phase: "A", Period: "AM", Index: 0, Start: 5, End: 20},
		},
		Diagnostics: []emuerr.Diagnostic{
			emuerr.NewDiagnostic("sequencer", emuerr.ErrMissingPlanForStream, "stream=2"),
		},
	}
}

func TestWriteResultProducesValidJSON(t *testing.T) {
	dir := t.TempDir()
	res := testResult(t)

	path, err := WriteResult(dir, res)
	if err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("path = %q, want dir %q", path, dir)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var decoded Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Controller != "J01/100" {
		t.Errorf("Controller = %q, want J01/100", decoded.Controller)
	}
	if decoded.Period != "AM" {
		t.Errorf("Period = %q, want AM", decoded.Period)
	}
	if len(decoded.Timings) != 1 || decoded.Timings[0].Phase != "A" {
		t.Errorf("Timings = %+v, want one entry for phase A", decoded.Timings)
	}
	if len(decoded.Diagnostics) != 1 || decoded.Diagnostics[0].Severity != "warning" {
		t.Errorf("Diagnostics = %+v, want one warning-severity entry", decoded.Diagnostics)
	}
}

func TestWriteResultCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	res := testResult(t)

	if _, err := WriteResult(dir, res); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("output dir was not created: %v", err)
	}
}

func TestWriteResultsStopsOnFirstFailure(t *testing.T) {
	// A file (not a directory) at the target path makes MkdirAll fail for
	// any result after it.
	parent := t.TempDir()
	blocker := filepath.Join(parent, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	results := []driver.Result{testResult(t), testResult(t)}
	_, err := WriteResults(filepath.Join(blocker, "out"), results)
	if err == nil {
		t.Fatal("expected an error when the output dir path is blocked by a file")
	}
}
