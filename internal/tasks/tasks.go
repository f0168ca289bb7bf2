package tasks

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tcgtrack/internal/models"
)

// CardAdder creates collection instances. [services.CollectionService] implements it.
type CardAdder interface {
	AddCard(ctx context.Context, n models.NewInstance) (models.Instance, error)
}

// RunStore persists import runs. [repositories.ImportRunRepository] implements it.
type RunStore interface {
	Create(run *models.ImportRun) error
	Update(run *models.ImportRun) error
}

// ImportEngine imports instances into a user's collection.
type ImportEngine struct {
	api    CardAdder
	runs   RunStore
	logger *log.Logger
}

// NewImportEngine creates an ImportEngine. runs may be nil to skip run bookkeeping.
func NewImportEngine(api CardAdder, runs RunStore, logger *log.Logger) *ImportEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ImportEngine{api: api, runs: runs, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ImportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// saveRun writes the run's current state. Bookkeeping failures are logged, never returned.
func (e *ImportEngine) saveRun(run *models.ImportRun, create bool) {
	if e.runs == nil {
		return
	}

	var err error
	if create {
		err = e.runs.Create(run)
	} else {
		err = e.runs.Update(run)
	}
	if err != nil {
		e.logger.Warn("failed to save import run", "source", run.Source(), "error", err)
	}
}
