package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/tcgtrack/internal/formatter"
	"github.com/desertthunder/tcgtrack/internal/models"
	"github.com/desertthunder/tcgtrack/internal/shared"
)

// ImportOpts contains configuration for a bulk import.
type ImportOpts struct {
	Source     string  // Import file name, stored on the run
	NumWorkers int     // Concurrent requests (default: 4, max: 10)
	RateLimit  float64 // Requests per second (default: 5)
}

// RowResult is the outcome of one import row.
type RowResult struct {
	Line    int
	Request models.NewInstance
	Created *models.Instance
	Error   error
}

// ImportResult summarizes a bulk import. Results are in file order.
type ImportResult struct {
	Run     *models.ImportRun
	Total   int
	Added   int
	Failed  int
	Results []RowResult
}

// Import adds every valid row to the collection.
//
// Requests run on a worker pool and are started no faster than opts.RateLimit.
// A row that fails is recorded and the import continues. Cancelling ctx stops
// submitting rows; rows that never ran fail with the context error.
func (e *ImportEngine) Import(ctx context.Context, prog chan<- ProgressUpdate, rows []formatter.ImportRow, opts ImportOpts) (*ImportResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: collection client not initialized", shared.ErrMissingConfig)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: nothing to import", shared.ErrInvalidInput)
	}

	if opts.Source == "" {
		opts.Source = "stdin"
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	run := models.NewImportRun(opts.Source)
	e.saveRun(run, true)
	run.Start(len(rows))
	e.saveRun(run, false)

	result := &ImportResult{Run: run, Total: len(rows), Results: make([]RowResult, len(rows))}

	var pending []int
	for i, row := range rows {
		result.Results[i] = RowResult{Line: row.Line, Request: row.Instance, Error: row.Err}
		if row.Err == nil {
			pending = append(pending, i)
		}
	}
	e.sendProgress(prog, validateRowsUpdate(len(pending), len(rows)))
	e.sendProgress(prog, importStartedUpdate(len(pending)))

	var mu sync.Mutex
	done := make([]bool, len(rows))
	completed := 0

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	pool := pond.NewPool(opts.NumWorkers, pond.WithContext(ctx))

	for _, i := range pending {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		pool.Submit(func() {
			created, err := e.api.AddCard(ctx, rows[i].Instance)

			mu.Lock()
			defer mu.Unlock()

			done[i] = true
			completed++
			if err != nil {
				result.Results[i].Error = err
				e.logger.Debug("import row failed", "line", rows[i].Line, "error", err)
				e.sendProgress(prog, rowFailedUpdate(completed, len(pending), rows[i].Line, err))
				return
			}
			result.Results[i].Created = &created
			e.sendProgress(prog, rowAddedUpdate(completed, len(pending), &created))
		})
	}
	pool.StopAndWait()

	ctxErr := ctx.Err()
	for _, i := range pending {
		if !done[i] && ctxErr != nil {
			result.Results[i].Error = ctxErr
		}
	}

	for _, res := range result.Results {
		ok := res.Error == nil && res.Created != nil
		run.Record(ok)
		if ok {
			result.Added++
		} else {
			result.Failed++
		}
	}

	var err error
	switch {
	case ctxErr != nil:
		err = fmt.Errorf("import interrupted: %w", ctxErr)
	case result.Added == 0:
		err = errors.New("no cards were imported")
	}

	run.Complete(err)
	e.saveRun(run, false)
	e.sendProgress(prog, runRecordedUpdate(run))
	e.logger.Info("import finished", "source", opts.Source, "added", result.Added, "failed", result.Failed)
	return result, err
}
