package metrics

import (
	"bytes"
	"fmt"

	"github.com/google/renameio/v2"
	"github.com/prometheus/common/expfmt"
)

// WriteTextfile gathers every registered metric and atomically writes it
// in the node_exporter textfile-collector format to path, using the same
// pending-file-then-rename durability pattern as internal/sink.
func (r *Registry) WriteTextfile(path string) error {
	families, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode: %w", err)
		}
	}

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("metrics: create pending file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("metrics: write payload: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("metrics: atomic replace: %w", err)
	}
	return nil
}
