package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/streamops/modsentry/internal/actions"
)

// #region entry

// Entry is one processed event as recorded in the JSONL run log.
type Entry struct {
	Idx             int               `json:"idx"`
	User            string            `json:"user"`
	Comment         string            `json:"comment"`
	ProposedPlan    string            `json:"proposed_plan"`
	EffectivePlan   string            `json:"effective_plan"`
	Agreed          bool              `json:"agreed"`
	ActionsExecuted []string          `json:"actions_executed"`
	ActionResults   []actions.Outcome `json:"action_results"`
	MemAdded        bool              `json:"mem_added"`
	RetrievedCount  int               `json:"retrieved_count"`
	MemorySize      int               `json:"memory_size"`
	CumulativeCost  float64           `json:"cumulative_cost"`
	CumulativeCalls int               `json:"cumulative_calls"`
}

// #endregion entry

// #region writer

// Writer appends entries to a JSONL log, one object per line. Lines are
// only ever appended; reruns against the same path extend the log.
type Writer struct {
	f *os.File
}

// NewWriter opens (or creates) the log at path for appending.
func NewWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	return &Writer{f: f}, nil
}

// Append writes one entry as a JSON line.
func (w *Writer) Append(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if _, err := w.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.f.Close()
}

// #endregion writer
