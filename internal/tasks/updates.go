package tasks

import (
	"fmt"

	"github.com/desertthunder/tcgtrack/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ValidateRows Phase = iota
	ImportRows
	RecordRun
)

func (p Phase) String() string {
	switch p {
	case ValidateRows:
		return "validate_rows"
	case ImportRows:
		return "import_rows"
	case RecordRun:
		return "record_run"
	default:
		return ""
	}
}

func validateRowsUpdate(valid, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateRows,
		Step:    valid,
		Total:   total,
		Message: fmt.Sprintf("%d of %d rows are valid", valid, total),
	}
}

func importStartedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRows,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Adding %d cards...", total),
	}
}

func rowAddedUpdate(step, total int, inst *models.Instance) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRows,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s) x%d", step, total, inst.CardName, inst.ExpansionName, inst.Quantity),
		Data:    inst,
	}
}

func rowFailedUpdate(step, total, line int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRows,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ line %d: %v", step, total, line, err),
	}
}

func runRecordedUpdate(run *models.ImportRun) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordRun,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Import %s: %d added, %d failed", run.Status(), run.Added(), run.Failed()),
		Data:    run,
	}
}
