package models

import (
	"fmt"
	"time"
)

// ImportStatus is the lifecycle state of an [ImportRun].
type ImportStatus string

const (
	ImportPending   ImportStatus = "pending"
	ImportRunning   ImportStatus = "running"
	ImportCompleted ImportStatus = "completed"
	ImportFailed    ImportStatus = "failed"
)

// ImportRun records one bulk import of card instances from a file.
type ImportRun struct {
	id          string
	source      string
	status      ImportStatus
	total       int
	added       int
	failed      int
	errMessage  string
	startedAt   *time.Time
	completedAt *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// NewImportRun creates a pending run for the given source file.
func NewImportRun(source string) *ImportRun {
	now := time.Now()
	return &ImportRun{
		source:    source,
		status:    ImportPending,
		createdAt: now,
		updatedAt: now,
	}
}

// RestoreImportRun rebuilds a run from stored columns.
func RestoreImportRun(id, source string, status ImportStatus, total, added, failed int, errMessage string, startedAt, completedAt *time.Time, createdAt, updatedAt time.Time) *ImportRun {
	return &ImportRun{
		id: id, source: source, status: status,
		total: total, added: added, failed: failed, errMessage: errMessage,
		startedAt: startedAt, completedAt: completedAt,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

func (r *ImportRun) ID() string { return r.id }
func (r *ImportRun) Source() string { return r.source }
func (r *ImportRun) Status() ImportStatus { return r.status }
func (r *ImportRun) Total() int { return r.total }
func (r *ImportRun) Added() int { return r.added }
func (r *ImportRun) Failed() int { return r.failed }
func (r *ImportRun) ErrorMessage() string { return r.errMessage }
func (r *ImportRun) StartedAt() *time.Time { return r.startedAt }
func (r *ImportRun) CompletedAt() *time.Time { return r.completedAt }
func (r *ImportRun) CreatedAt() time.Time { return r.createdAt }
func (r *ImportRun) UpdatedAt() time.Time { return r.updatedAt }

func (r *ImportRun) SetID(id string) { r.id = id }
func (r *ImportRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// Start marks the run as running with the number of rows to import.
func (r *ImportRun) Start(total int) {
	now := time.Now()
	r.status = ImportRunning
	r.total = total
	r.startedAt = &now
}

// Record tallies one row outcome.
func (r *ImportRun) Record(ok bool) {
	if ok {
		r.added++
	} else {
		r.failed++
	}
}

// Complete marks the run finished. A non-nil err marks it failed.
func (r *ImportRun) Complete(err error) {
	now := time.Now()
	r.completedAt = &now
	if err != nil {
		r.status = ImportFailed
		r.errMessage = err.Error()
		return
	}
	r.status = ImportCompleted
}

// Validate checks that the run is internally consistent.
func (r *ImportRun) Validate() error {
	if r.source == "" {
		return fmt.Errorf("import run source is required")
	}
	switch r.status {
	case ImportPending, ImportRunning, ImportCompleted, ImportFailed:
	default:
		return fmt.Errorf("invalid import status %q", r.status)
	}
	if r.added < 0 || r.failed < 0 {
		return fmt.Errorf("import counts must not be negative")
	}
	if r.status != ImportPending && r.added+r.failed > r.total {
		return fmt.Errorf("import counts out of range: %d added, %d failed of %d", r.added, r.failed, r.total)
	}
	return nil
}
