// Package sink writes a Driver Result to durable JSON files, one per
// (controller, period), using atomic temp-file-then-rename semantics so a
// reader never observes a partially written output. Grounded on the
// teacher's internal/jobs writeM3U/writeXMLTV helpers
// (internal/jobs/write_unix.go), which wrap github.com/google/renameio/v2
// the same way.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/Mohi32/signal-emulator/internal/driver"
)

// Record is the on-disk shape of one (controller, period) emulation
// result: the computed Plan, its PhaseTimings, and any non-fatal
// diagnostics collected along the way.
type Record struct {
	Controller  string                 `json:"controller"`
	Period      string                 `json:"period"`
	Plan        interface{}            `json:"plan"`
	Timings     []jsonPhaseTiming      `json:"phase_timings"`
	Diagnostics []jsonDiagnostic       `json:"diagnostics,omitempty"`
}

type jsonPhaseTiming struct {
	Phase string `json:"phase"`
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type jsonDiagnostic struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// BuildRecord converts a driver.Result into its JSON-facing Record.
func BuildRecord(res driver.Result) Record {
	timings := make([]jsonPhaseTiming, 0, len(res.Timings))
	for _, t := range res.Timings {
		timings = append(timings, jsonPhaseTiming{
			Phase: string(t.Phase),
			Index: t.Index,
			Start: t.Start,
			End:   t.End,
		})
	}
	diags := make([]jsonDiagnostic, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		diags = append(diags, jsonDiagnostic{
			Severity: d.Severity.String(),
			Message:  d.String(),
		})
	}
	return Record{
		Controller:  res.Controller.String(),
		Period:      res.Period,
		Plan:        res.Plan,
		Timings:     timings,
		Diagnostics: diags,
	}
}

// WriteResult renders res as pretty-printed JSON and atomically writes it
// to <outputDir>/<controller-area>-<controller-site>-<period>.json.
func WriteResult(outputDir string, res driver.Result) (string, error) {
	record := BuildRecord(res)
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("sink: marshal result: %w", err)
	}

	name := fmt.Sprintf("%s-%s-%s.json", res.Controller.Area, res.Controller.Site, res.Period)
	path := filepath.Join(outputDir, name)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("sink: create output dir: %w", err)
	}

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return "", fmt.Errorf("sink: create pending file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(data); err != nil {
		return "", fmt.Errorf("sink: write payload: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("sink: atomic replace: %w", err)
	}
	return path, nil
}

// WriteResults writes every result in results, stopping at the first
// write failure (an output-directory problem, e.g. permissions or a full
// disk, applies to every subsequent write too).
func WriteResults(outputDir string, results []driver.Result) ([]string, error) {
	paths := make([]string, 0, len(results))
	for _, res := range results {
		path, err := WriteResult(outputDir, res)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
