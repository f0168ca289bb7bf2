package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tcgtrack/internal/models"
	"github.com/desertthunder/tcgtrack/internal/shared"
)

var _ models.Repository[*models.ImportRun] = (*ImportRunRepository)(nil)

// ImportRunRepository implements models.Repository[*models.ImportRun] for bulk import history.
//
// Deletes are soft: rows keep a deleted_at timestamp and drop out of Get and List.
type ImportRunRepository struct {
	db *sql.DB
}

// NewImportRunRepository creates a new ImportRunRepository with the given database connection
func NewImportRunRepository(db *sql.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

const importRunColumns = `
	id, source, status, total, added, failed, error_message,
	started_at, completed_at, created_at, updated_at
`

// Create inserts a new import run with a generated ID
func (r *ImportRunRepository) Create(run *models.ImportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	query := `INSERT INTO import_runs (` + importRunColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		id,
		run.Source(),
		string(run.Status()),
		run.Total(),
		run.Added(),
		run.Failed(),
		nullString(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}

	run.SetID(id)
	return nil
}

// Get retrieves an import run by ID, excluding soft-deleted runs
func (r *ImportRunRepository) Get(id string) (*models.ImportRun, error) {
	query := `SELECT ` + importRunColumns + ` FROM import_runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanImportRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: import run %s", shared.ErrNotFound, id)
	}
	return run, err
}

// Update writes the run's status and counters
func (r *ImportRunRepository) Update(run *models.ImportRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE import_runs
		SET status = ?, total = ?, added = ?, failed = ?, error_message = ?,
			started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(run.Status()),
		run.Total(),
		run.Added(),
		run.Failed(),
		nullString(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update import run: %w", err)
	}

	return expectOneRow(result, run.ID())
}

// Delete soft-deletes an import run by ID
func (r *ImportRunRepository) Delete(id string) error {
	result, err := r.db.Exec("UPDATE import_runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete import run: %w", err)
	}
	return expectOneRow(result, id)
}

// List retrieves import runs newest first, narrowed by opts.
func (r *ImportRunRepository) List(opts models.ListOptions) ([]*models.ImportRun, error) {
	query := `SELECT ` + importRunColumns + ` FROM import_runs WHERE deleted_at IS NULL`
	args := []any{}

	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, opts.Status)
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ImportRun
	for rows.Next() {
		run, err := scanImportRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

func scanImportRun(row scanner) (*models.ImportRun, error) {
	var (
		id           string
		source       string
		status       string
		total        int
		added        int
		failed       int
		errorMessage sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(
		&id, &source, &status, &total, &added, &failed, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan import run: %w", err)
	}

	return models.RestoreImportRun(
		id, source, models.ImportStatus(status),
		total, added, failed, errorMessage.String,
		nullTime(startedAt), nullTime(completedAt),
		createdAt, updatedAt,
	), nil
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: import run %s not found or already deleted", shared.ErrNotFound, id)
	}
	return nil
}
